// Package metadata inspects image files for identifying EXIF content. The
// probe command uses it to show which files carry metadata that a sanitize
// pass would strip; the converter itself never looks inside image files.
package metadata

import (
	"io"
	"os"
	"strings"

	exif "github.com/dsoprea/go-exif/v3"
)

// Report summarizes the identifying metadata found in one file.
type Report struct {
	HasGPS       bool
	HasModel     bool
	HasTimestamp bool
	HasSerial    bool
	TagCount     int
}

// Empty reports whether nothing identifying was found.
func (r Report) Empty() bool {
	return !r.HasGPS && !r.HasModel && !r.HasTimestamp && !r.HasSerial
}

// Categories lists the human-readable labels for what was found.
func (r Report) Categories() []string {
	var cats []string
	if r.HasGPS {
		cats = append(cats, "GPS location")
	}
	if r.HasModel {
		cats = append(cats, "Device model")
	}
	if r.HasTimestamp {
		cats = append(cats, "Capture timestamp")
	}
	if r.HasSerial {
		cats = append(cats, "Serial number")
	}
	return cats
}

// InspectFile opens path and inspects its EXIF block.
func InspectFile(path string) (Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return Report{}, err
	}
	defer f.Close()
	return Inspect(f)
}

// Inspect scans rs for an EXIF block and classifies its tags. Files without
// EXIF data yield an empty report, not an error.
func Inspect(rs io.ReadSeeker) (Report, error) {
	report := Report{}

	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return report, err
	}

	tags, _, err := exif.GetFlatExifDataUniversalSearchWithReadSeeker(rs, nil, true)
	if err != nil {
		if isNoExif(err) {
			return report, nil
		}
		return report, err
	}

	report.TagCount = len(tags)
	for _, tag := range tags {
		name := tag.TagName
		if strings.HasPrefix(name, "GPS") || strings.Contains(tag.IfdPath, "GPS") {
			report.HasGPS = true
		}
		if name == "Model" || name == "CameraModelName" {
			report.HasModel = true
		}
		if name == "DateTimeOriginal" || name == "DateTimeDigitized" || name == "DateTime" {
			report.HasTimestamp = true
		}
		if strings.Contains(strings.ToLower(name), "serial") {
			report.HasSerial = true
		}
	}

	return report, nil
}

func isNoExif(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "no exif")
}
