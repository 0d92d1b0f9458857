// Package config loads simulator settings from defaults, an optional YAML
// file, ISOSIM_* environment variables and command-line flags, in increasing
// order of precedence, using a caller-owned viper instance.
//
//	stream:
//	  capacity_bytes: 3072
//	  frame_size: 384
//	  audio_data_size: 96
//	  duration: 1s
//	endpoint:
//	  address: 0x81
//	  interval: 1
//	logging:
//	  level: info
//	  format: text
//	metrics:
//	  addr: ":9090"
package config
