package domain

// SuperAdmin is the department value carried by administrators who see every department.
const SuperAdmin = "SUPER_ADMIN"

// Departments lists the hospital departments that run stocktakes.
var Departments = []string{
	"ER",
	"ADMISSION",
	"MARTENITY",
	"THEATRE",
	"LAB",
	"RADIOLOGY",
	"DENTIST",
}

// IsDepartment reports whether name is one of the known departments.
func IsDepartment(name string) bool {
	for _, d := range Departments {
		if d == name {
			return true
		}
	}
	return false
}
