// Package config loads textsnap settings from a YAML file and the
// environment, and reloads them when the file changes.
//
// Precedence, highest first: TEXTSNAP_* environment variables, the config
// file, built-in defaults. Settings are only ever read; nothing here writes
// the file.
//
// Example textsnap.yaml:
//
//	language: spa
//	tessdata_prefix: /usr/share/tesseract-ocr/5/tessdata
//	log_level: info
//	log_format: text
//	workers: 2
//	attempts: 1
//	save_dir: /home/me/Pictures/textsnap
package config
