package registry

// personaCategoryColumns are the web-category usage percentages reported per
// persona. They form a per-row distribution and each behaves as a percentage
// column with sensitivity 1.
var personaCategoryColumns = []string{
	"content_creation_photo_edit_creation",
	"content_creation_video_audio_edit_creation",
	"content_creation_web_design_development",
	"education",
	"entertainment_music_audio_streaming",
	"entertainment_other",
	"entertainment_video_streaming",
	"finance",
	"games_other",
	"games_video_games",
	"mail",
	"news",
	"unclassified",
	"private",
	"productivity_crm",
	"productivity_other",
	"productivity_presentations",
	"productivity_programming",
	"productivity_project_management",
	"productivity_spreadsheets",
	"productivity_word_processing",
	"recreation_travel",
	"reference",
	"search",
	"shopping",
	"social_social_network",
	"social_communication",
	"social_communication_live",
}

func personaSensitivities() map[string]float64 {
	s := map[string]float64{
		"number_of_systems": 1.0,
		"days":              1.0,
	}
	for _, col := range personaCategoryColumns {
		s[col] = 1.0
	}
	return s
}

// Default returns the registry of the twelve benchmark telemetry queries.
// Sensitivities follow the query shapes: COUNT columns move by at most 1 per
// entity, AVG columns by a conservative bound on one entity's contribution,
// percentage columns by at most their share of 100.
func Default() *Registry {
	r, err := New(
		Descriptor{
			ID:           1,
			Filename:     "battery_power_on_geographic_summary.csv",
			NoiseColumns: []string{"number_of_systems", "avg_number_of_dc_powerons", "avg_duration"},
			GroupColumns: []string{"country"},
			Metric:       AbnormalityMetric("avg_duration"),
			Sensitivity: map[string]float64{
				"number_of_systems":         1.0,
				"avg_number_of_dc_powerons": 10.0,
				"avg_duration":              60.0, // max ~60 min per entity
			},
		},
		Descriptor{
			ID:           2,
			Filename:     "battery_on_duration_by_cpu_family_and_generation.csv",
			NoiseColumns: []string{"number_of_systems", "avg_duration_mins_on_battery"},
			GroupColumns: []string{"marketcodename", "cpugen"},
			Metric:       AbnormalityMetric("avg_duration_mins_on_battery"),
			Sensitivity: map[string]float64{
				"number_of_systems":            1.0,
				"avg_duration_mins_on_battery": 60.0,
			},
		},
		Descriptor{
			ID:       3,
			Filename: "display_devices_connection_type_resolution_durations.csv",
			NoiseColumns: []string{
				"number_of_systems",
				"average_duration_on_ac_in_seconds",
				"average_duration_on_dc_in_seconds",
			},
			GroupColumns: []string{"connection_type", "resolution"},
			Metric:       RankingMetric("average_duration_on_ac_in_seconds"),
			Sensitivity: map[string]float64{
				"number_of_systems":                 1.0,
				"average_duration_on_ac_in_seconds": 3600.0, // max ~1 hr in seconds
				"average_duration_on_dc_in_seconds": 3600.0,
			},
		},
		Descriptor{
			ID:               4,
			Filename:         "display_devices_vendors_percentage.csv",
			NoiseColumns:     []string{"number_of_systems", "percentage_of_systems"},
			GroupColumns:     []string{"vendor_name"},
			NormalizePercent: "percentage_of_systems",
			Metric:           DistributionMetric("percentage_of_systems"),
			Sensitivity: map[string]float64{
				"number_of_systems":     1.0,
				"percentage_of_systems": 1.0, // one entity shifts market share by <= ~1 pp
			},
		},
		Descriptor{
			ID:           5,
			Filename:     "mods_blockers_by_os_name_and_codename.csv",
			NoiseColumns: []string{"num_entries", "number_of_systems", "entries_per_system"},
			GroupColumns: []string{"os_name", "os_codename"},
			Metric:       AbnormalityMetric("entries_per_system"),
			Sensitivity: map[string]float64{
				"num_entries":        1.0,
				"number_of_systems":  1.0,
				"entries_per_system": 5.0,
			},
		},
		Descriptor{
			// Query output carries only the winning browser per country, so
			// there is nothing to perturb; the mechanism passes the table
			// through and the winner metric degenerates to a sanity check.
			ID:           6,
			Filename:     "most_popular_browser_in_each_country.csv",
			NoiseColumns: nil,
			GroupColumns: []string{"country"},
			Metric:       WinnerMetric("browser"),
			Sensitivity:  map[string]float64{},
		},
		Descriptor{
			ID:       7,
			Filename: "on_off_mods_sleep_summary_by_cpu.csv",
			NoiseColumns: []string{
				"number_of_systems",
				"avg_on_time", "avg_off_time",
				"avg_modern_sleep_time", "avg_sleep_time",
				"avg_total_time",
				"avg_pcnt_on_time", "avg_pcnt_off_time",
				"avg_pcnt_mods_time", "avg_pcnt_sleep_time",
			},
			GroupColumns: []string{"marketcodename", "cpugen"},
			Metric:       AbnormalityMetric("avg_modern_sleep_time"),
			Sensitivity: map[string]float64{
				"number_of_systems":     1.0,
				"avg_on_time":           1440.0, // max minutes per day
				"avg_off_time":          1440.0,
				"avg_modern_sleep_time": 1440.0,
				"avg_sleep_time":        1440.0,
				"avg_total_time":        1440.0,
				"avg_pcnt_on_time":      100.0,
				"avg_pcnt_off_time":     100.0,
				"avg_pcnt_mods_time":    100.0,
				"avg_pcnt_sleep_time":   100.0,
			},
		},
		Descriptor{
			ID:            8,
			Filename:      "persona_web_category_usage_analysis.csv",
			NoiseColumns:  append([]string{"number_of_systems", "days"}, personaCategoryColumns...),
			GroupColumns:  []string{"persona"},
			NormalizeRows: personaCategoryColumns,
			Metric:        MultiDistributionMetric(personaCategoryColumns...),
			Sensitivity:   personaSensitivities(),
		},
		Descriptor{
			ID:           9,
			Filename:     "package_power_by_country.csv",
			NoiseColumns: []string{"number_of_systems", "avg_pkg_power_consumed"},
			GroupColumns: []string{"countryname_normalized"},
			Metric:       AbnormalityMetric("avg_pkg_power_consumed"),
			Sensitivity: map[string]float64{
				"number_of_systems":      1.0,
				"avg_pkg_power_consumed": 50.0, // max ~50 W package power
			},
		},
		Descriptor{
			ID:               10,
			Filename:         "popular_browsers_by_count_usage_percentage.csv",
			NoiseColumns:     []string{"percent_systems", "percent_instances", "percent_duration"},
			GroupColumns:     []string{"browser"},
			NormalizePercent: "percent_systems",
			Metric:           DistributionMetric("percent_systems"),
			Sensitivity: map[string]float64{
				"percent_systems":   1.0,
				"percent_instances": 1.0,
				"percent_duration":  1.0,
			},
		},
		Descriptor{
			ID:               11,
			Filename:         "ram_utilization_histogram.csv",
			NoiseColumns:     []string{"number_of_systems", "avg_percentage_used"},
			GroupColumns:     []string{"ram_gb"},
			NormalizePercent: "avg_percentage_used",
			Metric:           DistributionMetric("avg_percentage_used"),
			Sensitivity: map[string]float64{
				"number_of_systems":   1.0,
				"avg_percentage_used": 100.0,
			},
		},
		Descriptor{
			ID:           12,
			Filename:     "ranked_process_classifications.csv",
			NoiseColumns: []string{"total_power_consumption"},
			GroupColumns: []string{"user_id"},
			Metric:       RankingMetric("total_power_consumption"),
			Sensitivity: map[string]float64{
				"total_power_consumption": 100.0,
			},
		},
	)
	if err != nil {
		// The built-in catalog is validated by tests; a failure here is a
		// programming error.
		panic(err)
	}
	return r
}
