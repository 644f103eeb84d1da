// Package params resolves the labels attached to a scan run.
//
// Labels are free-form key/value pairs (team=payments, branch=main) copied into
// the report, the stored scan_runs row and the uploaded JSON. They come from
// three layers, lowest priority first:
//
//   - the labels map in sqlscan.yaml
//   - .env-style label files given with --labels-file
//   - --label key=value flags
//
// # Example Usage
//
//	fromFiles, err := params.LoadLabelFiles([]string{"ci.env"})
//	fromFlags, err := params.ParseLabels([]string{"team=payments"})
//	labels := params.Merge(projectCfg.Labels, fromFiles, fromFlags)
package params
