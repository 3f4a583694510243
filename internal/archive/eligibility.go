package archive

import "strings"

// SkipReason explains why the eligibility filter rejected a file.
type SkipReason string

const (
	ReasonNone           SkipReason = ""
	ReasonLevelMismatch  SkipReason = "level_mismatch"
	ReasonControlSample  SkipReason = "control_sample"
	ReasonAnnotated      SkipReason = "annotation"
	ReasonExcludedSample SkipReason = "excluded_sample"
	ReasonNotIncluded    SkipReason = "not_included"
	ReasonNonUpload      SkipReason = "nonupload_pattern"
)

// Aliquot barcodes carrying this value at controlSampleOffset belong to
// control samples and are never released.
// TODO: confirm the sentinel's meaning with the TCGA barcode owners before
// extending it to other positions.
const (
	controlSampleOffset   = 13
	controlSampleSentinel = "20"
)

// Decision is the eligibility verdict for one file.
type Decision struct {
	Upload bool
	Reason SkipReason
	// Detail carries the annotation category or the matching pattern.
	Detail string
}

// Decide applies the release checks in fixed order; the first failing check
// wins and later checks are not evaluated:
//
//  1. data level differs from the archive level, or control-sample barcode
//  2. an annotation category is set
//  3. the sample barcode is excluded
//  4. IncludeForAnalysis is not exactly "yes"
//  5. the file name matches a non-upload pattern
//
// The record's upload state is cleared whatever the outcome.
func Decide(rec *FileRecord, policy ExclusionPolicy, level string) Decision {
	rec.resetUploadState()

	switch {
	case !sameLevel(rec.DataLevel, level):
		return Decision{Reason: ReasonLevelMismatch, Detail: rec.DataLevel}
	case isControlSample(rec.AliquotBarcode):
		return Decision{Reason: ReasonControlSample, Detail: rec.AliquotBarcode}
	case rec.AnnotationCategory != "":
		return Decision{Reason: ReasonAnnotated, Detail: rec.AnnotationCategory}
	case policy.sampleExcluded(rec.SampleBarcode):
		return Decision{Reason: ReasonExcludedSample, Detail: rec.SampleBarcode}
	case rec.IncludeForAnalysis != "yes":
		return Decision{Reason: ReasonNotIncluded, Detail: rec.IncludeForAnalysis}
	}

	if pattern, ok := policy.matchPattern(rec.FileName); ok {
		return Decision{Reason: ReasonNonUpload, Detail: pattern}
	}
	return Decision{Upload: true}
}

// sameLevel compares data levels ignoring the space/underscore spelling
// difference between the DataLevel column and archive names.
func sameLevel(a, b string) bool {
	return strings.ReplaceAll(a, "_", " ") == strings.ReplaceAll(b, "_", " ")
}

func isControlSample(barcode string) bool {
	end := controlSampleOffset + len(controlSampleSentinel)
	return len(barcode) >= end && barcode[controlSampleOffset:end] == controlSampleSentinel
}
