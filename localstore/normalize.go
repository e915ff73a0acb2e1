package localstore

import "gorm.io/gorm"

// normalizeLegacyActivities collapses activity rows written under older
// keying schemes into canonical `userId:date` records. Duplicates resolve
// via the preferred-row rule, so a solved result is never lost to an
// unsolved one. Storage is rewritten only when something actually changed,
// which makes the pass idempotent and safe to re-run on every startup.
func (s *Store) normalizeLegacyActivities() error {
	var rows []DailyActivity
	if err := s.db.Find(&rows).Error; err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	normalized := make(map[string]DailyActivity)
	order := make([]string, 0, len(rows))
	needsRewrite := false

	for _, row := range rows {
		if row.UserID == "" {
			needsRewrite = true
			continue
		}
		date, ok := NormalizeDate(row.Date)
		if !ok {
			needsRewrite = true
			continue
		}

		key := ActivityKey(row.UserID, date)
		if row.ID != key || row.Date != date {
			needsRewrite = true
		}

		candidate := row
		candidate.ID = key
		candidate.Date = date

		current, exists := normalized[key]
		if exists {
			normalized[key] = pickPreferred(&current, candidate)
		} else {
			normalized[key] = candidate
			order = append(order, key)
		}
	}

	if !needsRewrite && len(normalized) == len(rows) {
		return nil
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&DailyActivity{}).Error; err != nil {
			return err
		}
		for _, key := range order {
			row := normalized[key]
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
