package brackets

// QualificationThreshold - количество убийств, при котором команда проходит в плей-офф.
const QualificationThreshold = 100

// IsQualified reports whether a team with the given accumulated kills has crossed the
// qualification threshold. The flag is sticky: callers OR it with the stored value.
func IsQualified(totalKills int) bool {
	return totalKills >= QualificationThreshold
}
