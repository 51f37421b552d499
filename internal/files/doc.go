// Package files provides the sources the GDP table can be read from and the
// loader that turns a source into a dataset snapshot.
//
// Three sources exist: FileSource for local files, HTTPSource for a single
// fetch over HTTP and SheetsSource for a Google Sheets range. Delimited text
// and Excel workbooks are detected by extension unless a format is
// configured. Watcher triggers reloads when a local file changes.
package files
