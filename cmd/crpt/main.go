// Crpt submits documents to the CRPT "Честный знак" registry without
// exceeding its request limit.
//
// Usage:
//
//	# Submit files through one shared throttle
//	crpt submit --workers 4 doc1.json doc2.json
//
//	# Submit every *.json file dropped into a directory
//	crpt watch --dir ./outbox
//
//	# Run a local registry that audits request rates
//	crpt stub --addr :8080 --period 1s
//
//	# Show version information
//	crpt version
//
// Settings come from --config (YAML), a .env file and CRPT_* variables.
package main

func main() {
	Execute()
}
