package versioning

import "time"

func at(year int, month time.Month, day, hour, minute, second, offsetHours int) time.Time {
	return time.Date(year, month, day, hour, minute, second, 0, time.FixedZone("", offsetHours*3600))
}

// calculatorTags mirrors the GNOME calculator tag listing, newest first.
func calculatorTags() []Reference {
	tag := func(name string, date time.Time) Reference {
		return Reference{Name: name, Type: ReferenceTag, Date: date}
	}
	return []Reference{
		tag("44.0", at(2023, 3, 17, 22, 17, 18, 2)),
		tag("44.rc", at(2023, 3, 3, 22, 33, 23, 2)),
		tag("44.beta", at(2023, 2, 11, 21, 31, 11, 2)),
		tag("43.0.1", at(2022, 9, 16, 20, 40, 1, 3)),
		tag("43.0", at(2022, 9, 16, 19, 58, 24, 3)),
		tag("43.rc", at(2022, 9, 2, 23, 14, 40, 3)),
		tag("43.alpha", at(2022, 7, 8, 16, 48, 43, 3)),
		tag("42.2", at(2022, 7, 1, 23, 15, 12, 3)),
		tag("42.1", at(2022, 5, 27, 19, 27, 52, 3)),
		tag("42.0", at(2022, 3, 19, 22, 15, 55, 2)),
		tag("42.rc", at(2022, 3, 6, 8, 15, 44, 2)),
		tag("42.beta", at(2022, 2, 13, 22, 0, 5, 2)),
		tag("42.alpha", at(2022, 1, 8, 23, 22, 56, 2)),
		tag("41.1", at(2021, 12, 6, 8, 47, 24, 2)),
		tag("41.0", at(2021, 9, 18, 22, 40, 23, 3)),
		tag("41.rc", at(2021, 9, 4, 20, 28, 37, 3)),
		tag("41.alpha", at(2021, 7, 10, 8, 44, 20, 3)),
		tag("40.1", at(2021, 4, 30, 16, 38, 38, 3)),
		tag("40.0", at(2021, 3, 19, 20, 32, 6, 2)),
	}
}

func names(refs []Reference) []string {
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		out = append(out, r.Name)
	}
	return out
}
