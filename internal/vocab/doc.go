// Package vocab loads the datacard keyword vocabulary.
//
// The vocabulary is read from a TextMate-style grammar (the keyword list is
// the alternation of the "keyword.combine-datacard" pattern) and a YAML table
// of descriptions. A copy of both files is embedded in the binary.
//
// A Vocabulary is read-only once loaded and safe to share between
// goroutines. Load it once at startup and pass it to the components that
// need it:
//
//	v, err := vocab.Default()
//	if err != nil {
//	    return err
//	}
//	kw, ok := v.Lookup("lnN")
package vocab
