// Package mongoupdate implements a tool that applies a $pull update
// document to a stream of JSON documents, printing each resulting document
// and, optionally, the replication log entry that a server would emit.
package mongoupdate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/mgo.v2/bson"

	"github.com/mongodb/mongo-update/common/bsonutil"
	"github.com/mongodb/mongo-update/common/log"
	commonopts "github.com/mongodb/mongo-update/common/options"
	"github.com/mongodb/mongo-update/common/mutablebson"
	"github.com/mongodb/mongo-update/update"
)

type MongoUpdate struct {
	ToolOptions   *commonopts.ToolOptions
	UpdateOptions *UpdateOptions

	// FileName is the input file; if empty, In is read instead.
	FileName string
	In       io.Reader
	Out      io.Writer

	mods []*update.ModifierPull
}

// ValidateSettings parses the update document and initializes one modifier
// per $pull field. It must be called before Run.
func (mu *MongoUpdate) ValidateSettings() error {
	if mu.UpdateOptions.Update == "" {
		return fmt.Errorf("no update document specified")
	}

	rawUpdate, err := decodeJSON([]byte(mu.UpdateOptions.Update))
	if err != nil {
		return fmt.Errorf("error parsing update document: %v", err)
	}
	updateDoc, ok := rawUpdate.(map[string]interface{})
	if !ok {
		return fmt.Errorf("update must be a JSON object")
	}

	pullExpr, ok := updateDoc["$pull"]
	if !ok {
		return fmt.Errorf("update document has no $pull field")
	}
	if len(updateDoc) > 1 {
		return fmt.Errorf("only $pull updates are supported")
	}
	pullDoc, ok := pullExpr.(map[string]interface{})
	if !ok || len(pullDoc) == 0 {
		return fmt.Errorf("$pull expects a non-empty object")
	}

	for name, value := range pullDoc {
		mod := update.NewModifierPull()
		if err := mod.Init(bson.DocElem{Name: name, Value: value}); err != nil {
			return fmt.Errorf("invalid $pull expression for '%v': %v", name, err)
		}
		mu.mods = append(mu.mods, mod)
	}

	log.Logvf(log.DebugLow, "initialized %v $pull modifier(s)", len(mu.mods))
	return nil
}

// Run applies the update to every input document. It returns the number of
// documents processed.
func (mu *MongoUpdate) Run() (int, error) {
	in := mu.In
	if mu.FileName != "" {
		file, err := os.Open(mu.FileName)
		if err != nil {
			return 0, fmt.Errorf("couldn't open input file: %v", err)
		}
		defer file.Close()
		in = file
	}

	out := mu.Out
	if mu.UpdateOptions.OutputFile != "" {
		file, err := os.Create(mu.UpdateOptions.OutputFile)
		if err != nil {
			return 0, fmt.Errorf("couldn't create output file: %v", err)
		}
		defer file.Close()
		out = file
	}

	decoder := json.NewDecoder(in)
	decoder.UseNumber()

	numFound := 0
	for decoder.More() {
		var raw interface{}
		if err := decoder.Decode(&raw); err != nil {
			return numFound, fmt.Errorf("error parsing input document: %v", err)
		}
		obj, ok := convertJSONValue(raw).(map[string]interface{})
		if !ok {
			return numFound, fmt.Errorf("input must be a stream of JSON objects")
		}

		if err := mu.updateOne(obj, out); err != nil {
			return numFound, err
		}
		numFound++
	}

	return numFound, nil
}

// updateOne runs the full modifier lifecycle against one document and
// writes the results.
func (mu *MongoUpdate) updateOne(obj map[string]interface{}, out io.Writer) error {
	doc, err := mutablebson.NewDocumentFromValue(obj)
	if err != nil {
		return fmt.Errorf("error building document: %v", err)
	}

	logBuilder := update.NewLogBuilder(mutablebson.NewDocument())

	for _, mod := range mu.mods {
		execInfo := &update.ExecInfo{}
		if err := mod.Prepare(doc.Root(), mu.UpdateOptions.MatchedField, execInfo); err != nil {
			return fmt.Errorf("error preparing update: %v", err)
		}
		log.Logvf(log.DebugHigh, "prepared '%v': noOp=%v",
			execInfo.FieldRef.DottedField(), execInfo.NoOp)

		if !execInfo.NoOp {
			if err := mod.Apply(); err != nil {
				return fmt.Errorf("error applying update: %v", err)
			}
		}
		if mu.UpdateOptions.Oplog {
			if err := mod.Log(logBuilder); err != nil {
				return fmt.Errorf("error logging update: %v", err)
			}
		}
	}

	if err := writeDoc(doc.Root().ValueObject(), out); err != nil {
		return err
	}
	if mu.UpdateOptions.Oplog {
		if err := writeDoc(logBuilder.Document().Root().ValueObject(), out); err != nil {
			return err
		}
	}
	return nil
}

func writeDoc(doc bson.D, out io.Writer) error {
	jsonBytes, err := json.Marshal(bsonutil.MarshalD(doc))
	if err != nil {
		return fmt.Errorf("error converting doc to JSON: %v", err)
	}
	if _, err := out.Write(jsonBytes); err != nil {
		return err
	}
	_, err = out.Write([]byte("\n"))
	return err
}

func decodeJSON(data []byte) (interface{}, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	var raw interface{}
	if err := decoder.Decode(&raw); err != nil {
		return nil, err
	}
	return convertJSONValue(raw), nil
}

// convertJSONValue maps decoded JSON values onto the value vocabulary the
// document tree accepts: integral json.Numbers become int64, the rest
// become float64.
func convertJSONValue(val interface{}) interface{} {
	switch v := val.(type) {
	case json.Number:
		if asInt, err := v.Int64(); err == nil {
			return asInt
		}
		asFloat, err := v.Float64()
		if err != nil {
			return v.String()
		}
		return asFloat
	case map[string]interface{}:
		converted := make(map[string]interface{}, len(v))
		for key, entry := range v {
			converted[key] = convertJSONValue(entry)
		}
		return converted
	case []interface{}:
		converted := make([]interface{}, len(v))
		for i, entry := range v {
			converted[i] = convertJSONValue(entry)
		}
		return converted
	}
	return val
}
