// Package e2e provides end-to-end tests over a generated dataset catalogue and multiple queries.
package e2e

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/hyperjump/ausdata/internal/models"
)

// QueryTestCase defines a query and the dataset ID(s) that must appear in search results.
type QueryTestCase struct {
	Query              string
	ExpectedDatasetIDs []string
	Description        string
}

// Corpus holds datasets and query test cases for E2E tests.
type Corpus struct {
	Datasets      []models.Dataset
	TestCases     []QueryTestCase
	TotalDatasets int
	TotalQueries  int
}

// BuildCorpus returns a catalogue of generated Australian open-government datasets
// and one query per dataset. Each dataset carries a signature phrase in its title
// and description so queries can assert the correct record is returned.
func BuildCorpus() *Corpus {
	datasets := buildDatasets()
	cases := buildQueryTestCases(datasets)
	return &Corpus{
		Datasets:      datasets,
		TestCases:     cases,
		TotalDatasets: len(datasets),
		TotalQueries:  len(cases),
	}
}

type entry struct {
	title    string
	phrase   string
	owner    string
	topic    string
	coverage string
	dataType string
	year     int
}

var entries = []entry{
	{"Daily Rainfall Observations", "rainfall gauges", "Bureau of Meteorology", "Environment", "Australia", "CSV", 2023},
	{"Sydney Heatwave Records", "heatwave temperatures", "Bureau of Meteorology", "Environment", "Sydney, NSW", "CSV", 2022},
	{"Murray-Darling Basin Water Storage", "reservoir levels", "Murray-Darling Basin Authority", "Water", "Murray-Darling Basin", "CSV", 2023},
	{"Groundwater Bore Database", "groundwater bores", "Bureau of Meteorology", "Water", "Australia", "API", 2021},
	{"Bushfire Burnt Area Mapping", "bushfire scars", "Geoscience Australia", "Emergency", "Australia", "GeoJSON", 2020},
	{"Flood Warning Catchments", "flood catchments", "Bureau of Meteorology", "Emergency", "Queensland", "Shapefile", 2022},
	{"Census Population Counts", "census population", "Australian Bureau of Statistics", "Demographics", "Australia", "CSV", 2021},
	{"Regional Internal Migration", "internal migration", "Australian Bureau of Statistics", "Demographics", "Australia", "XLSX", 2022},
	{"Hospital Emergency Department Waits", "emergency waiting", "Australian Institute of Health and Welfare", "Health", "Australia", "CSV", 2023},
	{"Childhood Immunisation Coverage", "immunisation coverage", "Department of Health and Aged Care", "Health", "Australia", "CSV", 2023},
	{"Aged Care Service Providers", "aged care", "Department of Health and Aged Care", "Health", "Australia", "API", 2022},
	{"School Enrolment Statistics", "school enrolments", "Australian Curriculum, Assessment and Reporting Authority", "Education", "Australia", "XLSX", 2023},
	{"NAPLAN Literacy Results", "literacy numeracy", "Australian Curriculum, Assessment and Reporting Authority", "Education", "Australia", "CSV", 2022},
	{"Higher Education Completions", "university completions", "Department of Education", "Education", "Australia", "XLSX", 2021},
	{"Road Crash Fatalities", "crash fatalities", "Bureau of Infrastructure and Transport Research Economics", "Transport", "Australia", "CSV", 2023},
	{"Melbourne Tram Patronage", "tram patronage", "Department of Transport and Planning", "Transport", "Melbourne, VIC", "CSV", 2022},
	{"Airport Passenger Movements", "airport passengers", "Bureau of Infrastructure and Transport Research Economics", "Transport", "Australia", "XLSX", 2023},
	{"Residential Property Prices", "property prices", "Australian Bureau of Statistics", "Economy", "Capital cities", "CSV", 2023},
	{"Labour Force Unemployment", "unemployment rate", "Australian Bureau of Statistics", "Economy", "Australia", "API", 2024},
	{"Consumer Price Index", "inflation index", "Australian Bureau of Statistics", "Economy", "Australia", "CSV", 2024},
	{"Small Business Counts", "business entries", "Australian Bureau of Statistics", "Economy", "Australia", "XLSX", 2022},
	{"Great Barrier Reef Coral Monitoring", "coral bleaching", "Australian Institute of Marine Science", "Environment", "Great Barrier Reef", "CSV", 2023},
	{"Threatened Species List", "threatened species", "Department of Climate Change, Energy, the Environment and Water", "Environment", "Australia", "API", 2023},
	{"Koala Habitat Mapping", "koala habitat", "NSW Department of Planning and Environment", "Environment", "NSW", "GeoJSON", 2021},
	{"National Greenhouse Gas Inventory", "greenhouse emissions", "Department of Climate Change, Energy, the Environment and Water", "Energy", "Australia", "XLSX", 2022},
	{"Rooftop Solar Installations", "rooftop solar", "Clean Energy Regulator", "Energy", "Australia", "CSV", 2023},
	{"Electricity Wholesale Prices", "wholesale electricity", "Australian Energy Market Operator", "Energy", "National Electricity Market", "CSV", 2024},
	{"Crop Production Estimates", "wheat harvest", "Australian Bureau of Agricultural and Resource Economics and Sciences", "Agriculture", "Australia", "XLSX", 2023},
	{"Livestock Export Volumes", "cattle exports", "Department of Agriculture, Fisheries and Forestry", "Agriculture", "Australia", "CSV", 2022},
	{"Fisheries Catch Statistics", "fisheries catch", "Australian Fisheries Management Authority", "Agriculture", "Australian waters", "CSV", 2021},
	{"Recorded Crime Victims", "crime victims", "Australian Bureau of Statistics", "Justice", "Australia", "XLSX", 2023},
	{"Prison Population Snapshot", "prisoner numbers", "Australian Bureau of Statistics", "Justice", "Australia", "CSV", 2022},
	{"Public Library Locations", "library branches", "State Library of Victoria", "Community", "Victoria", "GeoJSON", 2020},
	{"Perth Park Facilities", "playground facilities", "City of Perth", "Community", "Perth, WA", "CSV", 2021},
	{"Brisbane Bikeway Network", "bikeway network", "Brisbane City Council", "Transport", "Brisbane, QLD", "GeoJSON", 2022},
	{"Hobart Street Trees", "street trees", "City of Hobart", "Environment", "Hobart, TAS", "CSV", 2019},
	{"Indigenous Language Atlas", "indigenous languages", "Australian Institute of Aboriginal and Torres Strait Islander Studies", "Culture", "Australia", "API", 2020},
	{"Museum Collection Objects", "museum collections", "National Museum of Australia", "Culture", "Australia", "API", 2021},
	{"Tourism Visitor Nights", "visitor nights", "Tourism Research Australia", "Tourism", "Australia", "XLSX", 2023},
	{"Mineral Deposit Locations", "mineral deposits", "Geoscience Australia", "Resources", "Australia", "Shapefile", 2022},
	{"Broadband Rollout Footprint", "broadband footprint", "NBN Co", "Communications", "Australia", "GeoJSON", 2021},
	{"Australian Business Register Extract", "registered abns", "Australian Taxation Office", "Economy", "Australia", "CSV", 2024},
}

func buildDatasets() []models.Dataset {
	out := make([]models.Dataset, 0, len(entries))
	for i, e := range entries {
		out = append(out, models.Dataset{
			ID:    fmt.Sprintf("e2e-ds-%03d", i+1),
			Title: e.title,
			Description: fmt.Sprintf("%s publishes %s records for %s. The %s series is updated regularly.",
				e.owner, e.phrase, e.coverage, e.phrase),
			Owner:    e.owner,
			Topic:    e.topic,
			Year:     e.year,
			Coverage: e.coverage,
			DataType: e.dataType,
			URL:      fmt.Sprintf("https://data.gov.au/dataset/e2e-ds-%03d", i+1),
			Tags:     strings.Fields(e.phrase),
		})
	}
	return out
}

func buildQueryTestCases(datasets []models.Dataset) []QueryTestCase {
	cases := make([]QueryTestCase, 0, len(datasets))
	for i, ds := range datasets {
		phrase := entries[i].phrase
		cases = append(cases, QueryTestCase{
			Query:              "datasets about " + phrase,
			ExpectedDatasetIDs: []string{ds.ID},
			Description:        fmt.Sprintf("query for %q should return %s", phrase, ds.ID),
		})
	}
	return cases
}

// signaturePhrase returns the words of a query that follow the "datasets about" prefix.
func signaturePhrase(q string) string {
	return strings.TrimPrefix(q, "datasets about ")
}

func containsPhrase(ds models.Dataset, phrase string) bool {
	phrase = strings.ToLower(phrase)
	return strings.Contains(strings.ToLower(ds.Title), phrase) ||
		strings.Contains(strings.ToLower(ds.Description), phrase)
}

// WriteCatalogue writes the corpus datasets to path as a JSON array.
func (c *Corpus) WriteCatalogue(path string) error {
	data, err := json.MarshalIndent(c.Datasets, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
