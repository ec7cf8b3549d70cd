// Package sizer converts between human-readable byte sizes as printed by the
// tracker ("1.46 GB", "512 B") and byte counts.
//
// Units are binary (powers of 1024) even though the site labels them
// kB/MB/GB. Formatting always uses two decimal digits so that a formatted
// value parses back to the same unit class.
package sizer
