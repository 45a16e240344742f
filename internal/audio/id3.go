package audio

import (
	"bytes"
	"fmt"
	"io"
)

// ID3v2 summarizes the tag header at the start of a file.
type ID3v2 struct {
	Major    int
	Revision int
	// Size covers the whole tag including its header and optional footer.
	Size int64
}

// Version renders the tag version as "2.major.revision".
func (t ID3v2) Version() string {
	return fmt.Sprintf("2.%d.%d", t.Major, t.Revision)
}

// ReadID3v2 inspects the first bytes of r for an ID3v2 tag. ok is false when
// no tag is present.
func ReadID3v2(r io.ReaderAt) (ID3v2, bool, error) {
	var hdr [10]byte
	n, err := r.ReadAt(hdr[:], 0)
	if err != nil && err != io.EOF {
		return ID3v2{}, false, err
	}
	if n < len(hdr) || !bytes.Equal(hdr[:3], []byte("ID3")) {
		return ID3v2{}, false, nil
	}
	for _, b := range hdr[6:10] {
		if b&0x80 != 0 {
			return ID3v2{}, false, nil
		}
	}
	size := int64(hdr[6])<<21 | int64(hdr[7])<<14 | int64(hdr[8])<<7 | int64(hdr[9])
	size += int64(len(hdr))
	if hdr[5]&0x10 != 0 {
		size += 10
	}
	return ID3v2{Major: int(hdr[3]), Revision: int(hdr[4]), Size: size}, true, nil
}

// HasID3v1 reports whether the final 128 bytes of a file of the given size
// hold an ID3v1 tag.
func HasID3v1(r io.ReaderAt, size int64) (bool, error) {
	if size < 128 {
		return false, nil
	}
	var marker [3]byte
	if _, err := r.ReadAt(marker[:], size-128); err != nil {
		return false, err
	}
	return string(marker[:]) == "TAG", nil
}

// DetectVBR looks for a Xing or VBRI header in the first MPEG frame starting
// at offset. An "Info" header marks a CBR stream written by LAME.
func DetectVBR(r io.ReaderAt, offset int64) (bool, error) {
	buf := make([]byte, 256)
	n, err := r.ReadAt(buf, offset)
	if err != nil && err != io.EOF {
		return false, err
	}
	buf = buf[:n]
	if bytes.Contains(buf, []byte("Xing")) || bytes.Contains(buf, []byte("VBRI")) {
		return true, nil
	}
	return false, nil
}
