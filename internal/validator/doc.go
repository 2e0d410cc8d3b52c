// Package validator audits which pronunciation assets named by the lookup
// tables actually exist, either on a web server (HEAD probes) or in a local
// asset directory, and renders the findings as a console report.
package validator
