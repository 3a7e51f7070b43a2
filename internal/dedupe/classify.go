package dedupe

import "github.com/cohen-center/survey-cli/internal/model"

// Raw role codes as they appear on the questionnaire.
const (
	codeLeadClergy   = 1 // senior rabbi / lead clergy
	codePresident    = 2
	codeExecutiveDir = 3
)

// roleRanks maps raw role codes to resolution priority. Higher means the
// respondent speaks with more authority for the organization. The rank is a
// tie-break signal only, never evidence of duplication itself.
var roleRanks = map[int]int{
	codeLeadClergy:   12,
	codePresident:    11,
	codeExecutiveDir: 10,
	4:                4, // board vice president
	5:                4, // board treasurer/secretary
	6:                3, // other officer
	7:                2, // education director
	8:                2, // program staff
	9:                2, // administrator
	10:               2, // other staff
	11:               1, // committee member
	12:               1, // general member
}

// roleCategories maps the three leadership codes to their category; every
// other code is RoleOther.
var roleCategories = map[int]model.RoleCategory{
	codeLeadClergy:   model.RoleLeadClergy,
	codePresident:    model.RolePresident,
	codeExecutiveDir: model.RoleExecutive,
}

// Classify maps a raw role code to its category and rank. The mapping is
// total: unknown codes fall to (RoleOther, 0) rather than failing.
func Classify(rawRoleCode int) (model.RoleCategory, int) {
	cat, ok := roleCategories[rawRoleCode]
	if !ok {
		cat = model.RoleOther
	}
	return cat, roleRanks[rawRoleCode]
}
