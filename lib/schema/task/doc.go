// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package task defines the liteflow task record and the vocabulary the
// workflow engine reads and writes: the closed status and priority
// sets, the closed set of rule-addressable fields with their display
// names, audit entries, and the ChangeSet a workflow pass commits.
//
// Status and priority values are stored as their French display
// labels ("Nouveau", "À faire", "En cours", "Terminé"; "Basse",
// "Moyenne", "Haute", "Critique") because those are the strings rule
// authors type into trigger and step values. CanonicalStatus folds
// the unaccented spelling "A faire" into "À faire" wherever a status
// enters the system.
package task
