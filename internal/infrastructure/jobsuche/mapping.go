package jobsuche

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/janhq/jobsuche-mcp/internal/domain/jobsearch"
)

// flexInt decodes counters the API sends either as numbers or as strings.
type flexInt int64

func (f *flexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return err
		}
		*f = flexInt(n)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	v, err := n.Int64()
	if err != nil {
		fv, ferr := n.Float64()
		if ferr != nil {
			return err
		}
		v = int64(fv)
	}
	*f = flexInt(v)
	return nil
}

type searchResponse struct {
	Stellenangebote []listing `json:"stellenangebote"`
	MaxErgebnisse   *flexInt  `json:"maxErgebnisse"`
	Page            *flexInt  `json:"page"`
	Size            *flexInt  `json:"size"`
}

type listing struct {
	Beruf                           string    `json:"beruf"`
	Titel                           string    `json:"titel"`
	Refnr                           string    `json:"refnr"`
	Arbeitsort                      *workSite `json:"arbeitsort"`
	Arbeitgeber                     string    `json:"arbeitgeber"`
	AktuelleVeroeffentlichungsdatum string    `json:"aktuelleVeroeffentlichungsdatum"`
	ExterneURL                      string    `json:"externeUrl"`
}

type workSite struct {
	PLZ    string `json:"plz"`
	Ort    string `json:"ort"`
	Region string `json:"region"`
	Land   string `json:"land"`
}

func (r searchResponse) toOutcome(filter jobsearch.SearchFilter) *jobsearch.SearchOutcome {
	jobs := make([]jobsearch.JobSummary, 0, len(r.Stellenangebote))
	for _, l := range r.Stellenangebote {
		if strings.TrimSpace(l.Refnr) == "" {
			continue
		}
		jobs = append(jobs, l.toSummary())
	}

	outcome := &jobsearch.SearchOutcome{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		Jobs:     jobs,
	}
	if r.MaxErgebnisse != nil {
		outcome.TotalResults = int64(*r.MaxErgebnisse)
	}
	if r.Page != nil && *r.Page > 0 {
		outcome.Page = int(*r.Page)
	}
	if r.Size != nil && *r.Size > 0 {
		outcome.PageSize = int(*r.Size)
	}
	return outcome
}

func (l listing) toSummary() jobsearch.JobSummary {
	title := l.Titel
	if strings.TrimSpace(title) == "" {
		title = l.Beruf
	}

	location := ""
	if l.Arbeitsort != nil {
		location = place(l.Arbeitsort.Ort, l.Arbeitsort.PLZ)
	}

	return jobsearch.JobSummary{
		ReferenceNumber: l.Refnr,
		Title:           title,
		Employer:        l.Arbeitgeber,
		Location:        location,
		PublishedDate:   optional(l.AktuelleVeroeffentlichungsdatum),
		ExternalURL:     optional(l.ExterneURL),
	}
}

type detailResponse struct {
	Titel                          string     `json:"titel"`
	Stellenbeschreibung            string     `json:"stellenbeschreibung"`
	Arbeitgeber                    string     `json:"arbeitgeber"`
	Arbeitsorte                    []siteWrap `json:"arbeitsorte"`
	ArbeitszeitVollzeit            *bool      `json:"arbeitszeitVollzeit"`
	Verguetung                     string     `json:"verguetung"`
	Vertragsdauer                  string     `json:"vertragsdauer"`
	StellenangebotsArt             string     `json:"stellenangebotsArt"`
	ErsteVeroeffentlichungsdatum   string     `json:"ersteVeroeffentlichungsdatum"`
	NurFuerSchwerbehinderte        *bool      `json:"nurFuerSchwerbehinderte"`
	Eintrittszeitraum              *period    `json:"eintrittszeitraum"`
	Veroeffentlichungszeitraum     *period    `json:"veroeffentlichungszeitraum"`
	IstGeringfuegigeBeschaeftigung *bool      `json:"istGeringfuegigeBeschaeftigung"`
	IstArbeitnehmerUeberlassung    *bool      `json:"istArbeitnehmerUeberlassung"`
	IstPrivateArbeitsvermittlung   *bool      `json:"istPrivateArbeitsvermittlung"`
	QuereinstiegGeeignet           *bool      `json:"quereinstiegGeeignet"`
	Chiffrenummer                  string     `json:"chiffrenummer"`
	AllianzpartnerURL              string     `json:"allianzpartnerUrl"`
}

type siteWrap struct {
	Adresse *address `json:"adresse"`
}

type address struct {
	PLZ string `json:"plz"`
	Ort string `json:"ort"`
}

type period struct {
	Von string `json:"von"`
	Bis string `json:"bis"`
}

// String renders the period as "von - bis", "ab von" or "bis bis".
func (p *period) String() string {
	if p == nil {
		return ""
	}
	switch {
	case p.Von != "" && p.Bis != "":
		return p.Von + " - " + p.Bis
	case p.Von != "":
		return "ab " + p.Von
	case p.Bis != "":
		return "bis " + p.Bis
	}
	return ""
}

func (d detailResponse) toDetail(referenceNumber string, raw []byte) *jobsearch.JobDetail {
	entry := optional(d.Eintrittszeitraum.String())

	detail := &jobsearch.JobDetail{
		ReferenceNumber:       referenceNumber,
		Title:                 optional(d.Titel),
		Description:           optional(htmlToText(d.Stellenbeschreibung)),
		Employer:              optional(d.Arbeitgeber),
		Location:              optional(d.location()),
		StartDate:             entry,
		PartnerURL:            optional(d.AllianzpartnerURL),
		Salary:                optional(d.Verguetung),
		ContractDuration:      optional(d.Vertragsdauer),
		JobType:               optional(d.StellenangebotsArt),
		FirstPublished:        optional(d.ErsteVeroeffentlichungsdatum),
		OnlyForDisabled:       d.NurFuerSchwerbehinderte,
		Fulltime:              d.ArbeitszeitVollzeit,
		EntryPeriod:           entry,
		PublicationPeriod:     optional(d.Veroeffentlichungszeitraum.String()),
		IsMinorEmployment:     d.IstGeringfuegigeBeschaeftigung,
		IsTempAgency:          d.IstArbeitnehmerUeberlassung,
		IsPrivateAgency:       d.IstPrivateArbeitsvermittlung,
		CareerChangerSuitable: d.QuereinstiegGeeignet,
		CipherNumber:          optional(d.Chiffrenummer),
		RawData:               json.RawMessage(append([]byte(nil), raw...)),
	}
	if d.ArbeitszeitVollzeit != nil {
		kind := "Teilzeit"
		if *d.ArbeitszeitVollzeit {
			kind = "Vollzeit"
		}
		detail.EmploymentType = &kind
	}
	return detail
}

func (d detailResponse) location() string {
	for _, site := range d.Arbeitsorte {
		if site.Adresse == nil {
			continue
		}
		return place(site.Adresse.Ort, site.Adresse.PLZ)
	}
	return ""
}

// place renders "Ort (PLZ)", dropping whichever part is missing.
func place(ort, plz string) string {
	ort = strings.TrimSpace(ort)
	plz = strings.TrimSpace(plz)
	switch {
	case plz == "":
		return ort
	case ort == "":
		return plz
	}
	return ort + " (" + plz + ")"
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
