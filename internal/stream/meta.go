package stream

import (
	"bufio"
	"regexp"
	"strings"
)

// metaScanLines bounds the metadata scan. Hospital JSON files put their
// header fields before the charge array, within the first few lines.
const metaScanLines = 50

// JSONMeta holds the best-effort header fields scanned from the top of a
// hospital JSON file.
type JSONMeta struct {
	HospitalName    string
	HospitalAddress string
	Version         string
	LastUpdatedOn   string
}

var (
	metaNameRe    = regexp.MustCompile(`"hospital_name"\s*:\s*"([^"]+)"`)
	metaAddrRe    = regexp.MustCompile(`"hospital_address"\s*:\s*\[\s*"([^"]+)"`)
	metaVersionRe = regexp.MustCompile(`"version"\s*:\s*"([^"]+)"`)
	metaUpdatedRe = regexp.MustCompile(`"last_updated_on"\s*:\s*"([^"]+)"`)
)

// ScanJSONMeta extracts header fields from the first lines of a hospital
// JSON file with a bounded line-oriented regex search, stopping early once
// the charge array marker appears. Independent of the main streaming pass
// and strictly best-effort: absent fields stay empty.
func ScanJSONMeta(path string) (JSONMeta, error) {
	var meta JSONMeta

	rc, err := Open(path)
	if err != nil {
		return meta, err
	}
	defer rc.Close()

	scanner := bufio.NewScanner(rc)
	scanner.Buffer(make([]byte, 1024*1024), 16*1024*1024)

	for i := 0; scanner.Scan() && i < metaScanLines; i++ {
		line := scanner.Text()

		if meta.HospitalName == "" {
			if m := metaNameRe.FindStringSubmatch(line); m != nil {
				meta.HospitalName = m[1]
			}
		}
		if meta.HospitalAddress == "" {
			if m := metaAddrRe.FindStringSubmatch(line); m != nil {
				meta.HospitalAddress = m[1]
			}
		}
		if meta.Version == "" {
			if m := metaVersionRe.FindStringSubmatch(line); m != nil {
				meta.Version = m[1]
			}
		}
		if meta.LastUpdatedOn == "" {
			if m := metaUpdatedRe.FindStringSubmatch(line); m != nil {
				meta.LastUpdatedOn = m[1]
			}
		}

		if strings.Contains(line, `"`+DefaultArrayKey+`"`) {
			break
		}
	}

	return meta, scanner.Err()
}
