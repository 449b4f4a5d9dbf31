package check

import (
	"fmt"
	"strconv"

	"github.com/styliteag/checkmk-plugin-zfs-snapshot-age/pkg/config"
	"github.com/styliteag/checkmk-plugin-zfs-snapshot-age/pkg/models"
)

// EvaluateSnapshots scores one dataset's snapshot facts against the
// configured thresholds. Three axes are evaluated independently (newest
// age, oldest age, count) and combined into one result. Precondition
// failures short-circuit the whole evaluation with UNKNOWN: no sub-check
// runs and no metrics are emitted.
func EvaluateSnapshots(facts *models.SnapshotFacts, cfg *config.Config, now int64) *models.Result {
	if facts.Dataset == "" {
		return unknown("", "no dataset name given")
	}
	if err := cfg.ValidateSnapshotThresholds(); err != nil {
		return unknown(facts.Dataset, err.Error())
	}
	if facts.Count() == 0 {
		if cfg.SnapshotFilter != "" {
			return unknown(facts.Dataset, fmt.Sprintf("no snapshots found with filter %s", cfg.SnapshotFilter))
		}
		return unknown(facts.Dataset, "no snapshots found")
	}

	newest := facts.Newest()
	oldest := facts.Oldest()
	newestAgeSeconds := now - newest.Creation
	oldestAgeDays := (now - oldest.Creation) / 86400
	count := facts.Count()

	subs := []models.SubCheck{
		checkNewestAge(newestAgeSeconds, cfg),
		checkOldestAge(oldestAgeDays, cfg),
		checkCount(count, cfg),
	}

	okMessage := fmt.Sprintf("newest %d min, oldest %d days, count %d",
		newestAgeSeconds/60, oldestAgeDays, count)

	metrics := []models.Metric{
		{Name: "age", Value: strconv.FormatInt(newestAgeSeconds, 10),
			Warn: strconv.Itoa(cfg.NewestWarnMinutes * 60),
			Crit: strconv.Itoa(cfg.NewestCritMinutes * 60)},
		{Name: "creation", Value: fmt.Sprintf("%d;%d", newest.Creation, oldest.Creation)},
		{Name: "size", Value: "0"}, // reserved field
		{Name: "used", Value: strconv.FormatInt(facts.UsedBytes, 10)},
		{Name: "count", Value: strconv.Itoa(count),
			Warn: strconv.Itoa(cfg.CountWarn),
			Crit: strconv.Itoa(cfg.CountCrit)},
	}

	return aggregate(facts.Dataset, subs, okMessage, metrics)
}

// checkNewestAge scores the age of the newest snapshot: the dataset must
// have been snapshotted recently enough.
func checkNewestAge(ageSeconds int64, cfg *config.Config) models.SubCheck {
	ageMinutes := ageSeconds / 60
	if ageSeconds > int64(cfg.NewestCritMinutes)*60 {
		return models.SubCheck{
			Severity: models.SeverityCritical,
			Message:  fmt.Sprintf("newest snapshot is %d minutes old (critical at %d minutes)", ageMinutes, cfg.NewestCritMinutes),
		}
	}
	if ageSeconds > int64(cfg.NewestWarnMinutes)*60 {
		return models.SubCheck{
			Severity: models.SeverityWarning,
			Message:  fmt.Sprintf("newest snapshot is %d minutes old (warning at %d minutes)", ageMinutes, cfg.NewestWarnMinutes),
		}
	}
	return models.SubCheck{Severity: models.SeverityOK}
}

// checkOldestAge scores the age of the oldest snapshot against a band,
// not a ceiling: the oldest snapshot must lie between the warning and
// critical day marks. Exceeded retention is critical since untrimmed
// snapshots eventually exhaust the pool; a history still too short is
// only a warning since it resolves by itself.
func checkOldestAge(ageDays int64, cfg *config.Config) models.SubCheck {
	if ageDays > int64(cfg.OldestCritDays) {
		return models.SubCheck{
			Severity: models.SeverityCritical,
			Message:  fmt.Sprintf("oldest snapshot is %d days old, older than %d days", ageDays, cfg.OldestCritDays),
		}
	}
	if ageDays < int64(cfg.OldestWarnDays) {
		return models.SubCheck{
			Severity: models.SeverityWarning,
			Message:  fmt.Sprintf("oldest snapshot is %d days old, younger than %d days", ageDays, cfg.OldestWarnDays),
		}
	}
	return models.SubCheck{Severity: models.SeverityOK}
}

// checkCount scores the number of snapshots carried by the dataset.
func checkCount(count int, cfg *config.Config) models.SubCheck {
	if count > cfg.CountCrit {
		return models.SubCheck{
			Severity: models.SeverityCritical,
			Message:  fmt.Sprintf("%d snapshots, more than %d", count, cfg.CountCrit),
		}
	}
	if count > cfg.CountWarn {
		return models.SubCheck{
			Severity: models.SeverityWarning,
			Message:  fmt.Sprintf("%d snapshots, more than %d", count, cfg.CountWarn),
		}
	}
	return models.SubCheck{Severity: models.SeverityOK}
}

// EvaluateScrub scores one pool's scan facts against the configured
// thresholds. A pool that has never been scanned is a warning, not an
// error: that is the expected state of a freshly created pool.
func EvaluateScrub(facts *models.ScrubFacts, cfg *config.Config) *models.Result {
	if facts.Pool == "" {
		return unknown("", "no pool name given")
	}
	if err := cfg.ValidateScrubThresholds(); err != nil {
		return unknown(facts.Pool, err.Error())
	}

	switch facts.State {
	case models.ScrubRunning:
		return evaluateRunningScrub(facts, cfg)
	case models.ScrubFinished, models.ResilverFinished:
		return evaluateFinishedScrub(facts, cfg)
	default:
		return &models.Result{
			Entity:   facts.Pool,
			Severity: models.SeverityWarning,
			Message:  "no scrubbing information",
		}
	}
}

// evaluateRunningScrub scores the duration of an in-progress scan. The
// critical threshold is compared first so that a duration exceeding both
// thresholds resolves to CRITICAL.
func evaluateRunningScrub(facts *models.ScrubFacts, cfg *config.Config) *models.Result {
	var sub models.SubCheck
	switch {
	case facts.ElapsedSeconds > int64(cfg.RuntimeCritSeconds):
		sub = models.SubCheck{
			Severity: models.SeverityCritical,
			Message:  fmt.Sprintf("scrub running for %d seconds, longer than %d", facts.ElapsedSeconds, cfg.RuntimeCritSeconds),
		}
	case facts.ElapsedSeconds > int64(cfg.RuntimeWarnSeconds):
		sub = models.SubCheck{
			Severity: models.SeverityWarning,
			Message:  fmt.Sprintf("scrub running for %d seconds, longer than %d", facts.ElapsedSeconds, cfg.RuntimeWarnSeconds),
		}
	default:
		sub = models.SubCheck{Severity: models.SeverityOK}
	}

	okMessage := fmt.Sprintf("scrub running for %d seconds, %.2f%% done", facts.ElapsedSeconds, facts.PercentDone)

	metrics := []models.Metric{
		{Name: "time", Value: strconv.FormatInt(facts.ElapsedSeconds, 10),
			Warn: strconv.Itoa(cfg.RuntimeWarnSeconds),
			Crit: strconv.Itoa(cfg.RuntimeCritSeconds)},
		{Name: "errors", Value: "0"},
		{Name: "percent", Value: strconv.FormatFloat(facts.PercentDone, 'f', 2, 64)},
		{Name: "timeleft", Value: strconv.FormatInt(facts.TimeLeftSeconds, 10)},
		{Name: "repaired", Value: strconv.FormatInt(facts.RepairedBytes, 10)},
	}

	return aggregate(facts.Pool, []models.SubCheck{sub}, okMessage, metrics)
}

// evaluateFinishedScrub scores a completed scrub or resilver on three
// axes: age of the run, repair activity and error count. Any repair
// activity is noteworthy even when small, any error is critical.
func evaluateFinishedScrub(facts *models.ScrubFacts, cfg *config.Config) *models.Result {
	daysSince := facts.SecondsSinceCompletion / 86400

	var lastRun models.SubCheck
	switch {
	case daysSince > int64(cfg.LastRunCritDays):
		lastRun = models.SubCheck{
			Severity: models.SeverityCritical,
			Message:  fmt.Sprintf("last %s %d days ago, longer than %d days", facts.State, daysSince, cfg.LastRunCritDays),
		}
	case daysSince > int64(cfg.LastRunWarnDays):
		lastRun = models.SubCheck{
			Severity: models.SeverityWarning,
			Message:  fmt.Sprintf("last %s %d days ago, longer than %d days", facts.State, daysSince, cfg.LastRunWarnDays),
		}
	default:
		lastRun = models.SubCheck{Severity: models.SeverityOK}
	}

	repaired := models.SubCheck{Severity: models.SeverityOK}
	if facts.RepairedBytes != 0 {
		repaired = models.SubCheck{
			Severity: models.SeverityWarning,
			Message:  fmt.Sprintf("%s repaired %d bytes", facts.State, facts.RepairedBytes),
		}
	}

	errors := models.SubCheck{Severity: models.SeverityOK}
	if facts.ErrorCount > 0 {
		errors = models.SubCheck{
			Severity: models.SeverityCritical,
			Message:  fmt.Sprintf("%s with %d errors", facts.State, facts.ErrorCount),
		}
	}

	okMessage := fmt.Sprintf("%s %d days ago, 0 bytes repaired, 0 errors", facts.State, daysSince)

	metrics := []models.Metric{
		{Name: "time", Value: strconv.FormatInt(facts.SecondsSinceCompletion, 10),
			Warn: strconv.Itoa(cfg.LastRunWarnDays * 86400),
			Crit: strconv.Itoa(cfg.LastRunCritDays * 86400)},
		{Name: "exectime", Value: strconv.FormatInt(facts.DurationSeconds, 10)},
		{Name: "errors", Value: strconv.FormatInt(facts.ErrorCount, 10)},
		{Name: "repaired", Value: strconv.FormatInt(facts.RepairedBytes, 10)},
	}

	return aggregate(facts.Pool, []models.SubCheck{lastRun, repaired, errors}, okMessage, metrics)
}

// aggregate combines sub-check results into one entity result. The
// overall severity is the maximum over the OK < WARNING < CRITICAL order;
// when all axes are OK the consolidated summary is used, otherwise the
// message of the first sub-check at the overall severity wins.
func aggregate(entity string, subs []models.SubCheck, okMessage string, metrics []models.Metric) *models.Result {
	overall := models.SeverityOK
	for _, sub := range subs {
		overall = models.MaxSeverity(overall, sub.Severity)
	}

	message := okMessage
	if overall != models.SeverityOK {
		for _, sub := range subs {
			if sub.Severity == overall {
				message = sub.Message
				break
			}
		}
	}

	return &models.Result{
		Entity:   entity,
		Severity: overall,
		Metrics:  metrics,
		Message:  message,
	}
}

func unknown(entity, message string) *models.Result {
	return &models.Result{
		Entity:   entity,
		Severity: models.SeverityUnknown,
		Message:  message,
	}
}
