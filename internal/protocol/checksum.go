package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// ChecksumLen is the number of trailing checksum characters on each line.
const ChecksumLen = 2

// Checksum sums the code points of s and returns the last two characters of
// the sum in uppercase hex. Sums below 0x10 format to a single digit, which
// is returned as is; the device compares the formatted tail, not sum%256.
func Checksum(s string) string {
	sum := 0
	for _, r := range s {
		sum += int(r)
	}
	hex := strings.ToUpper(strconv.FormatInt(int64(sum), 16))
	if len(hex) <= ChecksumLen {
		return hex
	}
	return hex[len(hex)-ChecksumLen:]
}

// VerifyChecksum checks the trailing checksum of line against the checksum
// of everything before it.
func VerifyChecksum(line string) error {
	runes := []rune(line)
	if len(runes) < ChecksumLen {
		return &DecodeError{Line: -1, Tag: TagOf(line), Reason: "line shorter than checksum", Err: ErrChecksumMismatch}
	}
	body := string(runes[:len(runes)-ChecksumLen])
	got := string(runes[len(runes)-ChecksumLen:])
	if want := Checksum(body); want != got {
		return &DecodeError{
			Line:   -1,
			Tag:    TagOf(line),
			Reason: fmt.Sprintf("computed=%s trailing=%s", want, got),
			Err:    ErrChecksumMismatch,
		}
	}
	return nil
}

// Seal appends the checksum of line to it, producing a line as the device
// transmits it.
func Seal(line string) string {
	return line + Checksum(line)
}
