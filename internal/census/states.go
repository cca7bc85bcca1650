package census

import (
	"mspro-labs/grid-scout/internal/config"
	"mspro-labs/grid-scout/internal/models"
)

// BuildStates assembles the info of every state, keyed by abbreviation.
// Every year in [firstYear, lastYear] is present in the energy production,
// empty when the workbook has nothing for it.
func BuildStates(pop map[string]*models.StatePopulation, gen Generation, firstYear, lastYear int) map[string]models.StateInfo {
	out := make(map[string]models.StateInfo, len(config.USStates()))
	for _, st := range config.USStates() {
		info := models.StateInfo{
			Population: models.StatePopulation{
				Counties: []models.CountyPopulation{},
				Cities:   []models.CityPopulation{},
			},
			EnergyProduction: models.EnergyProduction{Annual: make(map[int]map[string]float64, max(lastYear-firstYear+1, 0))},
		}

		if sp, ok := pop[st.Name]; ok {
			info.Population = *sp
		} else {
			logger.Printf("No population rows for %s", st.Name)
		}

		years := gen[st.Abbr]
		if years == nil {
			logger.Printf("No generation rows for %s", st.Abbr)
		}
		for y := firstYear; y <= lastYear; y++ {
			sources := years[y]
			if sources == nil {
				sources = map[string]float64{}
			}
			info.EnergyProduction.Annual[y] = sources
		}

		out[st.Abbr] = info
	}
	return out
}
