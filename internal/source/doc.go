// Package source delivers raw device lines to the decoder.
//
// Sources own byte-to-text decoding (the instrument transmits ISO-8859-1)
// and line splitting. They never interpret tags; a batch is whatever
// complete lines were available when it was read.
package source
