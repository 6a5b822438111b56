package spatial

import (
	"sort"
	"strconv"
)

// Department is a French department with an approximate centre
type Department struct {
	Code string  `json:"code"`
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// Centre returns the approximate centre of the department
func (d Department) Centre() Point {
	return Point{Lat: d.Lat, Lon: d.Lon}
}

var departments = map[string]Department{
	"01":  {Name: "Ain", Lat: 46.2043, Lon: 5.2265},
	"02":  {Name: "Aisne", Lat: 49.4431, Lon: 3.4110},
	"03":  {Name: "Allier", Lat: 46.3448, Lon: 3.4285},
	"04":  {Name: "Alpes-de-Haute-Provence", Lat: 44.0925, Lon: 6.2350},
	"05":  {Name: "Hautes-Alpes", Lat: 44.5586, Lon: 6.0794},
	"06":  {Name: "Alpes-Maritimes", Lat: 43.7102, Lon: 7.2620},
	"07":  {Name: "Ardèche", Lat: 44.9333, Lon: 4.3833},
	"08":  {Name: "Ardennes", Lat: 49.7733, Lon: 4.7194},
	"09":  {Name: "Ariège", Lat: 42.9389, Lon: 1.6072},
	"10":  {Name: "Aube", Lat: 48.2978, Lon: 4.0783},
	"11":  {Name: "Aude", Lat: 43.2131, Lon: 2.3517},
	"12":  {Name: "Aveyron", Lat: 44.3500, Lon: 2.5667},
	"13":  {Name: "Bouches-du-Rhône", Lat: 43.2965, Lon: 5.3698},
	"14":  {Name: "Calvados", Lat: 49.1829, Lon: -0.3707},
	"15":  {Name: "Cantal", Lat: 45.0469, Lon: 2.4406},
	"16":  {Name: "Charente", Lat: 45.6500, Lon: 0.1500},
	"17":  {Name: "Charente-Maritime", Lat: 45.6333, Lon: -0.6333},
	"18":  {Name: "Cher", Lat: 47.0833, Lon: 2.4000},
	"19":  {Name: "Corrèze", Lat: 45.2667, Lon: 1.7667},
	"2A":  {Name: "Corse-du-Sud", Lat: 41.9267, Lon: 8.7369},
	"2B":  {Name: "Haute-Corse", Lat: 42.6970, Lon: 9.4500},
	"21":  {Name: "Côte-d'Or", Lat: 47.3220, Lon: 5.0415},
	"22":  {Name: "Côtes-d'Armor", Lat: 48.4500, Lon: -2.7500},
	"23":  {Name: "Creuse", Lat: 46.1667, Lon: 1.8667},
	"24":  {Name: "Dordogne", Lat: 45.1833, Lon: 0.7167},
	"25":  {Name: "Doubs", Lat: 47.2378, Lon: 6.0244},
	"26":  {Name: "Drôme", Lat: 44.9333, Lon: 4.8833},
	"27":  {Name: "Eure", Lat: 49.0833, Lon: 1.1500},
	"28":  {Name: "Eure-et-Loir", Lat: 48.4333, Lon: 1.4833},
	"29":  {Name: "Finistère", Lat: 48.3833, Lon: -4.4833},
	"30":  {Name: "Gard", Lat: 44.1333, Lon: 4.0833},
	"31":  {Name: "Haute-Garonne", Lat: 43.6047, Lon: 1.4442},
	"32":  {Name: "Gers", Lat: 43.6500, Lon: 0.5833},
	"33":  {Name: "Gironde", Lat: 44.8378, Lon: -0.5792},
	"34":  {Name: "Hérault", Lat: 43.6109, Lon: 3.8767},
	"35":  {Name: "Ille-et-Vilaine", Lat: 48.1147, Lon: -1.6794},
	"36":  {Name: "Indre", Lat: 46.8167, Lon: 1.6833},
	"37":  {Name: "Indre-et-Loire", Lat: 47.3833, Lon: 0.6833},
	"38":  {Name: "Isère", Lat: 45.1885, Lon: 5.7245},
	"39":  {Name: "Jura", Lat: 46.6667, Lon: 5.5500},
	"40":  {Name: "Landes", Lat: 43.8833, Lon: -1.3833},
	"41":  {Name: "Loir-et-Cher", Lat: 47.5833, Lon: 1.3333},
	"42":  {Name: "Loire", Lat: 45.4333, Lon: 4.3833},
	"43":  {Name: "Haute-Loire", Lat: 45.0333, Lon: 3.8833},
	"44":  {Name: "Loire-Atlantique", Lat: 47.2167, Lon: -1.5500},
	"45":  {Name: "Loiret", Lat: 47.9000, Lon: 1.9000},
	"46":  {Name: "Lot", Lat: 44.4500, Lon: 1.4333},
	"47":  {Name: "Lot-et-Garonne", Lat: 44.2000, Lon: 0.6167},
	"48":  {Name: "Lozère", Lat: 44.5167, Lon: 3.5000},
	"49":  {Name: "Maine-et-Loire", Lat: 47.4667, Lon: -0.5500},
	"50":  {Name: "Manche", Lat: 49.1167, Lon: -1.0833},
	"51":  {Name: "Marne", Lat: 49.2500, Lon: 4.0333},
	"52":  {Name: "Haute-Marne", Lat: 48.1167, Lon: 5.1333},
	"53":  {Name: "Mayenne", Lat: 48.0667, Lon: -0.7667},
	"54":  {Name: "Meurthe-et-Moselle", Lat: 48.6833, Lon: 6.1833},
	"55":  {Name: "Meuse", Lat: 49.1167, Lon: 5.3833},
	"56":  {Name: "Morbihan", Lat: 47.7500, Lon: -3.3667},
	"57":  {Name: "Moselle", Lat: 49.1167, Lon: 6.1833},
	"58":  {Name: "Nièvre", Lat: 47.0000, Lon: 3.1500},
	"59":  {Name: "Nord", Lat: 50.6333, Lon: 3.0667},
	"60":  {Name: "Oise", Lat: 49.4333, Lon: 2.0833},
	"61":  {Name: "Orne", Lat: 48.4333, Lon: 0.0833},
	"62":  {Name: "Pas-de-Calais", Lat: 50.2833, Lon: 2.7833},
	"63":  {Name: "Puy-de-Dôme", Lat: 45.7833, Lon: 3.0833},
	"64":  {Name: "Pyrénées-Atlantiques", Lat: 43.3000, Lon: -0.3667},
	"65":  {Name: "Hautes-Pyrénées", Lat: 43.2333, Lon: 0.0667},
	"66":  {Name: "Pyrénées-Orientales", Lat: 42.7000, Lon: 2.8833},
	"67":  {Name: "Bas-Rhin", Lat: 48.5833, Lon: 7.7500},
	"68":  {Name: "Haut-Rhin", Lat: 47.7500, Lon: 7.3333},
	"69":  {Name: "Rhône", Lat: 45.7500, Lon: 4.8500},
	"70":  {Name: "Haute-Saône", Lat: 47.6167, Lon: 6.1667},
	"71":  {Name: "Saône-et-Loire", Lat: 46.7833, Lon: 4.8500},
	"72":  {Name: "Sarthe", Lat: 48.0000, Lon: 0.2000},
	"73":  {Name: "Savoie", Lat: 45.5667, Lon: 5.9167},
	"74":  {Name: "Haute-Savoie", Lat: 46.2000, Lon: 6.1667},
	"75":  {Name: "Paris", Lat: 48.8566, Lon: 2.3522},
	"76":  {Name: "Seine-Maritime", Lat: 49.4333, Lon: 1.0833},
	"77":  {Name: "Seine-et-Marne", Lat: 48.5667, Lon: 2.6667},
	"78":  {Name: "Yvelines", Lat: 48.8000, Lon: 2.1333},
	"79":  {Name: "Deux-Sèvres", Lat: 46.3167, Lon: -0.4667},
	"80":  {Name: "Somme", Lat: 49.9000, Lon: 2.3000},
	"81":  {Name: "Tarn", Lat: 43.6000, Lon: 2.2333},
	"82":  {Name: "Tarn-et-Garonne", Lat: 44.0167, Lon: 1.3500},
	"83":  {Name: "Var", Lat: 43.1167, Lon: 6.0833},
	"84":  {Name: "Vaucluse", Lat: 44.0500, Lon: 5.0500},
	"85":  {Name: "Vendée", Lat: 46.6667, Lon: -1.4333},
	"86":  {Name: "Vienne", Lat: 46.5833, Lon: 0.3333},
	"87":  {Name: "Haute-Vienne", Lat: 45.8333, Lon: 1.2500},
	"88":  {Name: "Vosges", Lat: 48.1667, Lon: 6.4500},
	"89":  {Name: "Yonne", Lat: 47.8000, Lon: 3.5667},
	"90":  {Name: "Territoire de Belfort", Lat: 47.6333, Lon: 6.8667},
	"91":  {Name: "Essonne", Lat: 48.6333, Lon: 2.3333},
	"92":  {Name: "Hauts-de-Seine", Lat: 48.9000, Lon: 2.2500},
	"93":  {Name: "Seine-Saint-Denis", Lat: 48.9333, Lon: 2.3833},
	"94":  {Name: "Val-de-Marne", Lat: 48.7833, Lon: 2.4667},
	"95":  {Name: "Val-d'Oise", Lat: 49.0833, Lon: 2.2500},
	"971": {Name: "Guadeloupe", Lat: 16.2530, Lon: -61.5348},
	"972": {Name: "Martinique", Lat: 14.6415, Lon: -61.0242},
	"973": {Name: "Guyane", Lat: 3.9339, Lon: -53.1258},
	"974": {Name: "La Réunion", Lat: -21.1151, Lon: 55.5364},
	"976": {Name: "Mayotte", Lat: -12.8275, Lon: 45.1662},
}

// LookupDepartment returns the department with the given normalized code
func LookupDepartment(code string) (Department, bool) {
	d, ok := departments[code]
	if !ok {
		return Department{}, false
	}
	d.Code = code
	return d, true
}

// DepartmentName returns the name of a department, or "" when unknown
func DepartmentName(code string) string {
	return departments[code].Name
}

// Departments lists every known department ordered by code, Corsica between 19 and 21
func Departments() []Department {
	out := make([]Department, 0, len(departments))
	for code := range departments {
		d, _ := LookupDepartment(code)
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		return departmentOrder(out[i].Code) < departmentOrder(out[j].Code)
	})
	return out
}

func departmentOrder(code string) float64 {
	switch code {
	case "2A":
		return 20
	case "2B":
		return 20.5
	}
	n, err := strconv.Atoi(code)
	if err != nil {
		return 1000
	}
	return float64(n)
}
