package domain

// Schedule — расписание периодического job.
//
// Расписания задаются в конфигурационном файле, а не через API.
type Schedule struct {
	// Name — уникальное имя расписания.
	Name string `json:"name" yaml:"name"`

	// CronExpr — cron-выражение (5 полей: "0 6 * * *").
	CronExpr string `json:"cron" yaml:"cron"`

	// Items — items, которые получит каждый job.
	Items []string `json:"items" yaml:"items"`

	// Timezone — часовой пояс для cron (default: UTC).
	Timezone string `json:"timezone,omitempty" yaml:"timezone"`

	// Enabled — включено ли расписание.
	Enabled bool `json:"enabled" yaml:"enabled"`
}

// Source возвращает значение Job.Source для jobs этого расписания.
func (s *Schedule) Source() string {
	return "schedule:" + s.Name
}
