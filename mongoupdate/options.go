package mongoupdate

var Usage = `<options> <file>

Apply a $pull update document to a stream of JSON documents and print each resulting document.

If no file is given, documents are read from standard input.`

// UpdateOptions defines the set of options describing the update to apply.
type UpdateOptions struct {
	// Update is the update document, e.g. '{"$pull": {"scores": {"$lt": 60}}}'.
	Update string `long:"update" short:"u" description:"update document containing a $pull expression, as a JSON string, e.g. '{\"$pull\": {\"scores\": {\"$lt\": 60}}}'"`

	// MatchedField binds a positional $ element in the update path.
	MatchedField string `long:"matchedField" description:"array index to bind to a positional $ element in the update path"`

	// Oplog also prints the replication log entry for each document.
	Oplog bool `long:"oplog" description:"print the replication log entry after each resulting document"`

	// OutputFile specifies an output file path.
	OutputFile string `long:"out" short:"o" description:"output file; if not specified, stdout is used"`
}

// Name returns a human-readable group name for update options.
func (*UpdateOptions) Name() string {
	return "update"
}
