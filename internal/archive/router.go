package archive

import "strings"

// Router picks the bucket and object key of accepted files.
type Router struct {
	OpenBucket       string
	ControlledBucket string
	// OpenTag is the SecurityProtocol value of open-access data.
	OpenTag string
}

// Route is the destination shared by every file of one archive.
type Route struct {
	Bucket string
	Prefix string
}

// Route computes the destination from one record. All files of an archive
// share protocol, project, study, platform and pipeline, so one record
// stands for the whole archive.
func (r Router) Route(rec *FileRecord) Route {
	bucket := r.ControlledBucket
	if rec.SecurityProtocol == r.OpenTag {
		bucket = r.OpenBucket
	}
	prefix := "/" + strings.Join([]string{
		strings.ToLower(rec.Project),
		strings.ToLower(rec.Study),
		rec.Platform,
		rec.Pipeline,
	}, "/") + "/"
	return Route{Bucket: bucket, Prefix: prefix}
}

// Key is the object key of rec under this route.
func (rt Route) Key(rec *FileRecord) string {
	return rt.Prefix + strings.ReplaceAll(rec.DataLevel, " ", "_") + "/" + rec.FileName
}
