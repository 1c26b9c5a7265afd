package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/vincent-petithory/dataurl"
)

// SampleAudio is a short stand-in audio payload (an Ogg page header).
var SampleAudio = []byte("OggS\x00\x02\x00\x00\x00\x00\x00\x00\x00\x00voxpost-test")

// AudioDataURI encodes payload as a base64 data URI with the given media type
// ("audio/webm" when empty).
func AudioDataURI(payload []byte, mediaType string) string {
	if mediaType == "" {
		mediaType = "audio/webm"
	}
	return dataurl.New(payload, mediaType).String()
}

// WriteAudioFile writes SampleAudio to dir/name and returns the path.
func WriteAudioFile(t testing.TB, dir, name string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, SampleAudio, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
