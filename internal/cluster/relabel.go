package cluster

import (
	"bufio"
	"io"
	"strings"
)

// RelabelSegmentation rewrites a segmentation artifact, replacing cluster ids
// with the identities in mapping wherever an id appears as a whole field:
// the cluster:<id> header token and the trailing label field of data records.
// Replacement is token-exact, so an id that happens to be a substring of
// another token is left alone.
func RelabelSegmentation(r io.Reader, w io.Writer, mapping map[string]string) error {
	scanner := bufio.NewScanner(r)
	bw := bufio.NewWriter(w)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Fields(line)
		if strings.HasPrefix(line, headerMarker) {
			for i, tok := range fields {
				key, value, ok := strings.Cut(tok, ":")
				if ok && key == "cluster" {
					if name, hit := mapping[value]; hit {
						fields[i] = key + ":" + name
					}
				}
			}
		} else if len(fields) >= 8 {
			if name, hit := mapping[fields[7]]; hit {
				fields[7] = name
			}
		}
		if _, err := bw.WriteString(strings.Join(fields, " ") + "\n"); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return bw.Flush()
}
