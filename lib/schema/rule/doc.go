// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package rule defines the automation rule format: a named rule with
// up to three trigger conditions (ANDed) and an ordered list of steps.
//
// A rule file is a sequence of rules:
//
//	- name: Escalade réseau
//	  triggers:
//	    - field: Titre
//	      operator: Contient
//	      value: VPN
//	    - field: Statut
//	      operator: Est parmi
//	      value: [Nouveau, A faire]
//	  steps:
//	    - action: update
//	      fields:
//	        Assigné à: Réseau
//	        Priorité: Haute
//	    - action: create_task
//	      fields:
//	        title: Vérifier le concentrateur
//
// Older files use "actions" instead of "steps" and a single "trigger"
// mapping instead of a "triggers" list; both decode into the same
// Rule. Step field mappings keep their file order, which matters
// because later assignments overwrite earlier ones.
//
// Decoding is lenient: unknown operators, unknown step actions, and
// unknown step field keys are preserved so the integrity check can
// report them and the engine can skip them. Stricter checks for
// rules written through the CLI live in ValidateForAuthoring.
package rule
