// Package rabbits computes binary classification metrics from labelled tables.
//
// # Quick Start
//
//	frame, err := loader.Load("predictions.csv")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	m, err := rabbits.Evaluate(frame, "truth", "pred")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("precision %.3f recall %.3f f1 %.3f\n", m.Precision, m.Recall, m.F1)
//
// # Undefined Rates
//
// A rate whose denominator is zero is NaN, never an error. F-beta scores are
// the one exception: when precision and recall are both 0 the score is 0.
// Check with math.IsNaN before aggregating or comparing values.
//
// # Thread Safety
//
// Calculator is immutable after New and safe for concurrent use.
//
// # Helpers
//
// Sibling packages carry the rest of the analysis toolbox:
//   - loader: csv, tsv, json, parquet and zipped tables
//   - datefile: dates embedded in file names
//   - saver: atomic JSON append and table writes
//   - plotter: bar charts of means with confidence intervals
//   - timer: millisecond epoch conversion
//   - gptprice: OpenAI API cost estimates
//   - inference: ONNX classifier scoring
package rabbits
