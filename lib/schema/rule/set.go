// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rule

// Set is the rule list read for one workflow pass together with the
// digest of the bytes it was decoded from. Digest is empty for rule
// sets built in code.
type Set struct {
	Rules  []Rule
	Digest string
}
