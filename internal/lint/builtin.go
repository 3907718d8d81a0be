package lint

import (
	"fmt"

	"github.com/dshills/datacard/internal/align"
	"github.com/dshills/datacard/internal/datacard"
)

// Builtin runs the structural checks against an analyzed document.
func Builtin(doc datacard.Document, an *datacard.Analysis, aligner *align.Aligner) []Diagnostic {
	header, ok := an.Header()
	if !ok {
		return []Diagnostic{{
			StartLine: 0,
			EndLine:   0,
			Severity:  SeverityError,
			Code:      CodeHeaderMissing,
			Message:   "no imax/jmax/kmax header found on three consecutive lines",
		}}
	}

	var diags []Diagnostic
	if header != 0 {
		diags = append(diags, Diagnostic{
			StartLine: header,
			EndLine:   header + 2,
			Severity:  SeverityInformation,
			Code:      CodeHeaderNotAtTop,
			Message:   fmt.Sprintf("header starts on line %d, not on the first line", header+1),
		})
	}

	missing := false
	for _, s := range []datacard.Section{datacard.SectionProcesses, datacard.SectionSystematics} {
		if _, _, found := an.SectionRange(s); !found {
			missing = true
			diags = append(diags, Diagnostic{
				StartLine: header,
				EndLine:   header,
				Severity:  SeverityWarning,
				Code:      CodeSectionMissing,
				Message:   fmt.Sprintf("%s block not found", s),
			})
		}
	}
	if missing || aligner == nil {
		return diags
	}

	res, err := aligner.AlignAnalyzed(doc, an)
	if err != nil {
		return diags
	}
	if res.Changed {
		diags = append(diags, Diagnostic{
			StartLine: res.Edit.StartLine,
			EndLine:   res.Edit.EndLine,
			Severity:  SeverityHint,
			Code:      CodeMisaligned,
			Message:   "process and systematics columns are not aligned",
		})
	}
	for _, w := range res.Warnings {
		diags = append(diags, Diagnostic{
			StartLine: w.Line,
			EndLine:   w.Line,
			Severity:  SeverityInformation,
			Code:      CodeColumnOverflow,
			Message:   w.String(),
		})
	}
	return diags
}
