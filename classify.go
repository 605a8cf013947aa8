package catalogpix

// Classify derives the terminal state for an item from its kept image count
// and average match confidence. Pure function; evaluated once all download
// attempts for the item are exhausted.
func Classify(kept int, avgConfidence, matchThreshold float64) Classification {
	switch {
	case kept == 0:
		return NoImageFound
	case avgConfidence < matchThreshold:
		return NotSure
	default:
		return Found
	}
}

// folderSuffix maps a classification to the configured folder-name suffix.
// Found keeps the bare folder name.
func (cfg *Config) folderSuffix(c Classification) string {
	switch c {
	case NotSure:
		return cfg.NotSureSuffix
	case NoImageFound:
		return cfg.NoImageSuffix
	default:
		return ""
	}
}

// folderName returns the directory name for an item in a given state:
// sanitized item id plus the state's suffix.
func (cfg *Config) folderName(item *CatalogItem, c Classification) string {
	return sanitizeName(item.ID) + cfg.folderSuffix(c)
}
