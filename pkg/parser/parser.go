package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/styliteag/checkmk-plugin-zfs-snapshot-age/pkg/models"
)

// ParseSnapshotList parses `zfs list -Hp -t snapshot -o name,creation`
// output into snapshots grouped by dataset. Each line is
// "pool/dataset@snapname<TAB>epoch"; blank lines and the "no datasets
// available" notice are skipped. A malformed line only drops that line:
// it is counted and the remaining datasets keep their checks. The
// returned count lets callers log how many lines were dropped.
func ParseSnapshotList(data []byte) (map[string][]models.Snapshot, int) {
	result := make(map[string][]models.Snapshot)
	skipped := 0

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "no datasets") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 2 {
			skipped++
			continue
		}

		name := fields[0]
		at := strings.Index(name, "@")
		if at <= 0 {
			skipped++
			continue
		}
		dataset := name[:at]
		snapName := name[at+1:]

		creation, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			skipped++
			continue
		}

		result[dataset] = append(result[dataset], models.Snapshot{
			Name:     snapName,
			Creation: creation,
		})
	}

	return result, skipped
}

// ParsePoolList parses `zpool list -H -o name` output.
func ParsePoolList(data []byte) []string {
	var pools []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "no pools") {
			continue
		}
		pools = append(pools, line)
	}
	return pools
}

var sizeRe = regexp.MustCompile(`^([0-9]+(?:[.,][0-9]+)?)([BKMGTPEZY])?$`)

// ParseSize converts a human-readable size string like "12.3G" to raw
// bytes. Units are binary: value * 1024^index with index K=1 through Y=8.
// A bare number and the "B" suffix are taken as bytes, "-" and "0" as
// zero.
func ParseSize(sizeStr string) (int64, error) {
	sizeStr = strings.TrimSpace(sizeStr)
	if sizeStr == "" || sizeStr == "-" {
		return 0, nil
	}

	matches := sizeRe.FindStringSubmatch(sizeStr)
	if matches == nil {
		return 0, fmt.Errorf("unparseable size: %q", sizeStr)
	}

	value, err := strconv.ParseFloat(strings.Replace(matches[1], ",", ".", 1), 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable size value: %q", sizeStr)
	}

	multiplier := int64(1)
	if matches[2] != "" && matches[2] != "B" {
		idx := strings.Index("KMGTPEZY", matches[2]) + 1
		for i := 0; i < idx; i++ {
			multiplier *= 1024
		}
	}

	return int64(value * float64(multiplier)), nil
}

var (
	inProgressRe = regexp.MustCompile(`(?m)(scrub|resilver) in progress since (.+)$`)
	repairedRe   = regexp.MustCompile(`(?m)scrub repaired (\S+) in (.+?) with (\d+) errors on (.+)$`)
	resilveredRe = regexp.MustCompile(`(?m)resilvered (\S+) in (.+?) with (\d+) errors on (.+)$`)

	percentRe       = regexp.MustCompile(`([0-9]+(?:\.[0-9]+)?)% done`)
	timeLeftRe      = regexp.MustCompile(`(?:(\d+) days? )?(\d+):(\d{2}):(\d{2}) to go`)
	repairedSoFarRe = regexp.MustCompile(`(\S+) repaired`)
)

// ParseScanStatus turns the free-text scan section of `zpool status`
// output into ScrubFacts. It recognizes the three shapes zpool emits (in
// progress, scrub repaired, resilvered); anything else, including an
// empty scan section, yields ScrubStateUnknown. now is the reference
// timestamp for elapsed and since-completion times.
func ParseScanStatus(pool string, output []byte, now int64) (*models.ScrubFacts, error) {
	facts := &models.ScrubFacts{
		Pool:  pool,
		State: models.ScrubStateUnknown,
	}

	text := string(output)

	if m := inProgressRe.FindStringSubmatch(text); m != nil {
		facts.State = models.ScrubRunning

		start, err := parseScanTime(m[2])
		if err != nil {
			return nil, fmt.Errorf("pool %s: %w", pool, err)
		}
		facts.ElapsedSeconds = now - start

		if pm := percentRe.FindStringSubmatch(text); pm != nil {
			facts.PercentDone, _ = strconv.ParseFloat(pm[1], 64)
		}
		if tm := timeLeftRe.FindStringSubmatch(text); tm != nil {
			facts.TimeLeftSeconds = hmsToSeconds(tm[1], tm[2], tm[3], tm[4])
		}
		if rm := repairedSoFarRe.FindStringSubmatch(text); rm != nil {
			repaired, err := ParseSize(rm[1])
			if err != nil {
				return nil, fmt.Errorf("pool %s: %w", pool, err)
			}
			facts.RepairedBytes = repaired
		}
		return facts, nil
	}

	m := repairedRe.FindStringSubmatch(text)
	if m != nil {
		facts.State = models.ScrubFinished
	} else if m = resilveredRe.FindStringSubmatch(text); m != nil {
		facts.State = models.ResilverFinished
	}
	if m != nil {
		repaired, err := ParseSize(m[1])
		if err != nil {
			return nil, fmt.Errorf("pool %s: %w", pool, err)
		}
		facts.RepairedBytes = repaired

		duration, err := parseScanDuration(m[2])
		if err != nil {
			return nil, fmt.Errorf("pool %s: %w", pool, err)
		}
		facts.DurationSeconds = duration

		facts.ErrorCount, _ = strconv.ParseInt(m[3], 10, 64)

		end, err := parseScanTime(m[4])
		if err != nil {
			return nil, fmt.Errorf("pool %s: %w", pool, err)
		}
		facts.SecondsSinceCompletion = now - end
	}

	return facts, nil
}

// parseScanTime parses zpool's ctime-style timestamps like
// "Sun Jan  7 03:45:12 2024". Day-of-month padding varies, so spaces are
// collapsed before parsing.
func parseScanTime(s string) (int64, error) {
	s = strings.Join(strings.Fields(strings.TrimSpace(s)), " ")
	t, err := time.Parse("Mon Jan 2 15:04:05 2006", s)
	if err != nil {
		return 0, fmt.Errorf("invalid scan timestamp %q: %w", s, err)
	}
	return t.Unix(), nil
}

var (
	durationHMSRe = regexp.MustCompile(`^(?:(\d+) days? )?(\d+):(\d{2}):(\d{2})$`)
	durationHMRe  = regexp.MustCompile(`^(\d+)h(\d+)m$`)
)

// parseScanDuration parses the "in <duration>" part of a completed scan
// line. Modern zpool prints "HH:MM:SS" (with an optional "N days"
// prefix), older releases print "XhYm".
func parseScanDuration(s string) (int64, error) {
	s = strings.TrimSpace(s)

	if m := durationHMSRe.FindStringSubmatch(s); m != nil {
		return hmsToSeconds(m[1], m[2], m[3], m[4]), nil
	}
	if m := durationHMRe.FindStringSubmatch(s); m != nil {
		hours, _ := strconv.ParseInt(m[1], 10, 64)
		minutes, _ := strconv.ParseInt(m[2], 10, 64)
		return hours*3600 + minutes*60, nil
	}

	return 0, fmt.Errorf("invalid scan duration %q", s)
}

func hmsToSeconds(days, hours, minutes, seconds string) int64 {
	d, _ := strconv.ParseInt(days, 10, 64)
	h, _ := strconv.ParseInt(hours, 10, 64)
	m, _ := strconv.ParseInt(minutes, 10, 64)
	s, _ := strconv.ParseInt(seconds, 10, 64)
	return d*86400 + h*3600 + m*60 + s
}
