// Package textutil sanitizes disc labels and input names for use as output
// directories, file names and temp directory tokens.
package textutil
