// Package pipeline runs the nnmdl workflows as ordered steps over a Job.
//
// The update command chains login, crawl, persist, journal and report;
// the download command chains login, snapshot loading, queue building and
// download; the stats command loads a snapshot and renders it. Steps share
// state through the Job and the pipeline stops at the first failing step.
package pipeline
