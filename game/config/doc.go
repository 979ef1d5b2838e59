// Package config provides level management for the Direkt puzzle server.
//
// Levels are stored as JSON or YAML files in the levels directory. Each file
// describes a grid (level_setup), corner and straight gates, gate triggers,
// enemies by speed class and the player start. Files are decoded and validated
// by the engine package; this package adds discovery, caching and a default.
//
// Usage:
//
//	manager, err := config.NewManager("levels")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	level, err := manager.LoadConfig("level1")
//	def := manager.GetDefault()
//	infos, err := manager.ListConfigs()
//
// The default level is level1 when it exists, otherwise the first valid level
// file, otherwise a small built-in corridor.
package config
