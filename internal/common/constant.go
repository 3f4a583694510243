package common

// Column names of the metadata_data table. Raw metadata records are keyed by these.
const (
	ColDatafileName       = "DatafileName"
	ColDataLevel          = "DataLevel"
	ColAliquotBarcode     = "AliquotBarcode"
	ColSampleBarcode      = "SampleBarcode"
	ColIncludeForAnalysis = "IncludeForAnalysis"
	ColAnnotationCategory = "AnnotationCategory"
	ColSecurityProtocol   = "SecurityProtocol"
	ColProject            = "Project"
	ColStudy              = "Study"
	ColPlatform           = "Platform"
	ColPipeline           = "Pipeline"
	ColSDRFFileName       = "SDRFFileName"
)

// DefaultControlledMarker is the URL token identifying controlled-access archives.
const DefaultControlledMarker = "tcga4yeo"
