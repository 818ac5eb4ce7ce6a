// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package confignode parses the ConfigNode text format used by Kerbal Space
// Program for part configs and save files (*.cfg, *.sfs).
//
// A file is a list of entries. Each entry is either "key = text" on a single
// line, or "key { ... }" holding more entries. "//" starts a comment that runs
// to the end of the line; a single "/" is an ordinary character.
//
//	GAME
//	{
//		Title = Career (CAREER) // trailing comment
//		version = 1.12.5
//	}
//
// Usage:
//
//	root, err := confignode.Parse(text)
//	if err != nil {
//		return err
//	}
//	game, ok := root.Child("GAME")
//	if !ok {
//		return fmt.Errorf("no GAME node")
//	}
//	title, _ := game.Text("Title")
//
// Values are never interpreted. Use Value.AsText and Value.AsNode, or the
// Node.Text and Node.Child shortcuts, to get at them.
package confignode
