// Copyright 2026 The Atelier Authors
// SPDX-License-Identifier: Apache-2.0

// The atelier-commission-service binary is the commission marketplace
// bot. It logs into a Matrix homeserver as the configured bot account,
// long-polls /sync, and routes each inbound event either to a
// stateless command handler or into the sender's active conversation
// flow. All marketplace state lives in the entity store under the
// configured state directory.
//
// Configuration comes from a YAML file named by --config or the
// ATELIER_CONFIG environment variable; the bot account password comes
// from ATELIER_BOT_PASSWORD.
package main
