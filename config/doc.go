// Copyright 2026 AgentFlow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license.

/*
Package config manages the fabric's deployment configuration.

# Overview

config owns the full configuration lifecycle for a fabric deployment:
multi-source loading merged "defaults -> YAML file -> environment
variables", matching the precedence the teacher's loader used.

# Core types

  - Config: top-level aggregate — Server, Broker, Token, TLS, Log, and
    per-RPC-family retry/breaker/degraded-mode settings.
  - Loader: builder-style loader chaining config path, env prefix, and
    validators.
  - FamiliesConfig: one FamilyConfig (retry policy, breaker, degraded
    mode) per RPC family (chain-engine, memory, persona, RAG,
    model-registry).

# Usage

	cfg, err := config.NewLoader().
		WithConfigPath("fabric.yaml").
		WithEnvPrefix("INTELLIROUTER_FABRIC").
		Load()
*/
package config
