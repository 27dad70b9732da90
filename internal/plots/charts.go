package plots

import (
	"fmt"
	"image/color"
	"math"

	"github.com/aclements/go-moremath/stats"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/KaramelBytes/cohortscope/internal/cohort"
	"github.com/KaramelBytes/cohortscope/internal/dataset"
)

var (
	colorDarkViolet = hex("9400d3")
	colorSkyBlue    = hex("87ceeb")
	colorSalmon     = hex("fa8072")
	colorPink       = hex("ffc0cb")
	colorGray       = hex("808080")
	colorBrown      = hex("a52a2a")
	colorGold       = hex("ffd700")
	colorPurple     = hex("800080")
	colorGreen      = hex("008000")
	colorYellow     = hex("ffff00")

	// pastel palette, one per gender
	genderPalette = map[cohort.Gender]drawing.Color{
		cohort.Male:   hex("a1c9f4"),
		cohort.Female: hex("ffb482"),
	}
)

const densityPoints = 200

// AgeDistribution draws a histogram of patient ages.
func (r *Renderer) AgeDistribution(ps []cohort.Patient) ([]string, error) {
	ages := cohort.Ages(ps)
	if len(ages) == 0 {
		return nil, fmt.Errorf("age distribution: %w", ErrNoData)
	}
	edges := binEdges(ages, r.opt.Bins)
	p := plot.New()
	p.Title.Text = "Age Distribution"
	p.X.Label.Text = "Age"
	p.Y.Label.Text = "Frequency"
	p.Add(&plotter.Histogram{
		Bins:      histogramBins(ages, edges),
		Width:     edges[1] - edges[0],
		FillColor: colorDarkViolet,
		LineStyle: plotter.DefaultLineStyle,
	})
	path, err := r.savePlot(p, 10, 5, "age_distribution")
	if err != nil {
		return nil, err
	}
	return []string{path}, nil
}

// GenderDistribution draws one count bar per gender.
func (r *Renderer) GenderDistribution(ps []cohort.Patient) ([]string, error) {
	if len(ps) == 0 {
		return nil, fmt.Errorf("gender distribution: %w", ErrNoData)
	}
	counts := make(map[cohort.Gender]float64)
	for _, pt := range ps {
		counts[pt.Gender]++
	}
	p := plot.New()
	p.Title.Text = "|Gender Distribution|"
	p.Y.Label.Text = "Count"
	names := make([]string, len(cohort.Genders))
	for i, g := range cohort.Genders {
		names[i] = g.String()
		bar, err := plotter.NewBarChart(plotter.Values{counts[g]}, vg.Points(60))
		if err != nil {
			return nil, fmt.Errorf("gender distribution: %w", err)
		}
		bar.XMin = float64(i)
		bar.Color = genderPalette[g]
		bar.LineStyle.Width = 0
		p.Add(bar)
	}
	p.NominalX(names...)
	path, err := r.savePlot(p, 6, 4, "gender_distribution")
	if err != nil {
		return nil, err
	}
	return []string{path}, nil
}

// DiagnosisDistribution draws a pie chart of diagnosis counts.
func (r *Renderer) DiagnosisDistribution(ps []cohort.Patient) ([]string, error) {
	pc, err := diagnosisPie(ps, "||Diagnosis Distribution||", map[cohort.Diagnosis]drawing.Color{
		cohort.NoAlzheimers: colorSkyBlue,
		cohort.Alzheimers:   colorSalmon,
	})
	if err != nil {
		return nil, fmt.Errorf("diagnosis distribution: %w", err)
	}
	path, err := r.savePie(pc, 6, 6, "diagnosis_distribution")
	if err != nil {
		return nil, err
	}
	return []string{path}, nil
}

// GroupDistribution draws counts per age group stacked by diagnosis.
func (r *Renderer) GroupDistribution(ps []cohort.Patient) ([]string, error) {
	ct := dataset.AgeGroupByDiagnosis(ps)
	p, err := stackedBars(ct, map[string]color.Color{"0": colorGray, "1": colorBrown})
	if err != nil {
		return nil, fmt.Errorf("group distribution: %w", err)
	}
	p.Title.Text = "Alzheimer's Diagnosis by Age Group"
	p.X.Label.Text = "Age Group"
	p.Y.Label.Text = "Count"
	path, err := r.savePlot(p, 10, 7, "age_group_diagnosis")
	if err != nil {
		return nil, err
	}
	return []string{path}, nil
}

// GenderDiagnosis draws counts per gender stacked by diagnosis.
func (r *Renderer) GenderDiagnosis(ps []cohort.Patient) ([]string, error) {
	ct := dataset.GenderByDiagnosis(ps)
	p, err := stackedBars(ct, map[string]color.Color{"0": colorSkyBlue, "1": colorPink})
	if err != nil {
		return nil, fmt.Errorf("gender diagnosis: %w", err)
	}
	p.Title.Text = "|||Alzheimer's Diagnosis by Gender|||"
	p.X.Label.Text = "|Gender|"
	p.Y.Label.Text = "|Count|"
	path, err := r.savePlot(p, 8, 6, "gender_diagnosis")
	if err != nil {
		return nil, err
	}
	return []string{path}, nil
}

// DetailedAgeGroups draws, for every age group present, gender counts split
// by diagnosis and the diagnosis proportions within the group.
func (r *Renderer) DetailedAgeGroups(ps []cohort.Patient) ([]string, error) {
	groups := dataset.PresentAgeGroups(ps)
	if len(groups) == 0 {
		return nil, nil
	}
	byGroup := make(map[string][]cohort.Patient)
	for _, pt := range ps {
		byGroup[pt.AgeGroup] = append(byGroup[pt.AgeGroup], pt)
	}
	var files []string
	for _, g := range groups {
		subset := byGroup[g]

		p, err := groupedBars(dataset.GenderByDiagnosis(subset), map[string]color.Color{"0": colorGold, "1": colorPurple})
		if err != nil {
			return files, fmt.Errorf("age group %s: %w", g, err)
		}
		p.Title.Text = "Age Group: " + g
		p.X.Label.Text = "*Gender*"
		p.Y.Label.Text = "*Count*"
		path, err := r.savePlot(p, 6, 4, "age_group_"+g+"_gender")
		if err != nil {
			return files, err
		}
		files = append(files, path)

		pc, err := diagnosisPie(subset, "**Diagnosis Distribution in Age: "+g+"**", map[cohort.Diagnosis]drawing.Color{
			cohort.NoAlzheimers: colorGreen,
			cohort.Alzheimers:   colorYellow,
		})
		if err != nil {
			return files, fmt.Errorf("age group %s: %w", g, err)
		}
		path, err = r.savePie(pc, 6, 6, "age_group_"+g+"_diagnosis")
		if err != nil {
			return files, err
		}
		files = append(files, path)
	}
	return files, nil
}

// AgeByDiagnosis overlays age histograms per diagnosis on shared bins with a
// kernel density curve scaled to counts.
func (r *Renderer) AgeByDiagnosis(ps []cohort.Patient) ([]string, error) {
	all := cohort.Ages(ps)
	if len(all) == 0 {
		return nil, fmt.Errorf("age by diagnosis: %w", ErrNoData)
	}
	edges := binEdges(all, r.opt.Bins)
	binWidth := edges[1] - edges[0]
	palette := map[cohort.Diagnosis]drawing.Color{
		cohort.NoAlzheimers: colorYellow,
		cohort.Alzheimers:   colorGreen,
	}

	p := plot.New()
	p.Title.Text = "Age Distribution by Diagnosis"
	p.X.Label.Text = "Age"
	p.Y.Label.Text = "Frequency"
	p.Legend.Top = true

	groups := cohort.SplitByDiagnosis(ps)
	for _, d := range cohort.Diagnoses {
		ages := cohort.Ages(groups[d])
		if len(ages) == 0 {
			continue
		}
		c := palette[d]
		h := &plotter.Histogram{
			Bins:      histogramBins(ages, edges),
			Width:     binWidth,
			FillColor: translucent(c, 110),
			LineStyle: plotter.DefaultLineStyle,
		}
		p.Add(h)
		p.Legend.Add(d.Code(), h)

		curve := densityCurve(ages, edges[0], edges[len(edges)-1], binWidth)
		if curve == nil {
			continue
		}
		line, err := plotter.NewLine(curve)
		if err != nil {
			return nil, fmt.Errorf("age by diagnosis: %w", err)
		}
		line.LineStyle.Color = c
		line.LineStyle.Width = vg.Points(2)
		p.Add(line)
	}
	path, err := r.savePlot(p, 10, 6, "age_by_diagnosis")
	if err != nil {
		return nil, err
	}
	return []string{path}, nil
}

// densityCurve evaluates a Gaussian KDE of xs on [lo, hi], scaled so its area
// matches a histogram of len(xs) observations with the given bin width.
// It returns nil when the sample has no spread.
func densityCurve(xs []float64, lo, hi, binWidth float64) plotter.XYs {
	s := stats.Sample{Xs: xs}
	if len(xs) < 2 || s.StdDev() == 0 {
		return nil
	}
	kde := &stats.KDE{
		Sample:      s,
		Bandwidth:   stats.BandwidthScott(s),
		BoundaryMin: math.Inf(-1),
		BoundaryMax: math.Inf(1),
	}
	scale := float64(len(xs)) * binWidth
	pts := make(plotter.XYs, densityPoints)
	step := (hi - lo) / float64(densityPoints-1)
	for i := range pts {
		x := lo + float64(i)*step
		pts[i] = plotter.XY{X: x, Y: kde.PDF(x) * scale}
	}
	return pts
}

// stackedBars draws one bar per crosstab row with columns stacked on top of
// each other.
func stackedBars(ct dataset.Crosstab, colors map[string]color.Color) (*plot.Plot, error) {
	if len(ct.Rows) == 0 {
		return nil, ErrNoData
	}
	p := plot.New()
	p.Legend.Top = true
	var below *plotter.BarChart
	for j, col := range ct.Cols {
		vals := make(plotter.Values, len(ct.Rows))
		for i := range ct.Rows {
			vals[i] = ct.Counts[i][j]
		}
		bar, err := plotter.NewBarChart(vals, vg.Points(50))
		if err != nil {
			return nil, err
		}
		bar.Color = colors[col]
		bar.LineStyle.Width = 0
		if below != nil {
			bar.StackOn(below)
		}
		below = bar
		p.Add(bar)
		p.Legend.Add(diagnosisLabel(col), bar)
	}
	p.NominalX(ct.Rows...)
	return p, nil
}

// groupedBars draws crosstab columns side by side within each row.
func groupedBars(ct dataset.Crosstab, colors map[string]color.Color) (*plot.Plot, error) {
	if len(ct.Rows) == 0 {
		return nil, ErrNoData
	}
	p := plot.New()
	p.Legend.Top = true
	p.Legend.Add("Diagnosis")
	width := vg.Points(24)
	k := len(ct.Cols)
	for j, col := range ct.Cols {
		vals := make(plotter.Values, len(ct.Rows))
		for i := range ct.Rows {
			vals[i] = ct.Counts[i][j]
		}
		bar, err := plotter.NewBarChart(vals, width)
		if err != nil {
			return nil, err
		}
		bar.Color = colors[col]
		bar.LineStyle.Width = 0
		bar.Offset = vg.Length(float64(j)-float64(k-1)/2) * width
		p.Add(bar)
		p.Legend.Add(diagnosisLabel(col), bar)
	}
	p.NominalX(ct.Rows...)
	return p, nil
}

// diagnosisPie builds a pie of diagnosis counts labeled with one-decimal
// percentages. Slices follow the fixed diagnosis order.
func diagnosisPie(ps []cohort.Patient, title string, colors map[cohort.Diagnosis]drawing.Color) (chart.PieChart, error) {
	if len(ps) == 0 {
		return chart.PieChart{}, ErrNoData
	}
	counts := make(map[cohort.Diagnosis]float64)
	for _, pt := range ps {
		counts[pt.Diagnosis]++
	}
	total := float64(len(ps))
	var values []chart.Value
	for _, d := range cohort.Diagnoses {
		n := counts[d]
		if n == 0 {
			continue
		}
		values = append(values, chart.Value{
			Value: n,
			Label: fmt.Sprintf("%s %.1f%%", d.String(), n*100/total),
			Style: chart.Style{FillColor: colors[d], StrokeColor: drawing.ColorWhite},
		})
	}
	return chart.PieChart{Title: title, Values: values}, nil
}

func diagnosisLabel(code string) string {
	d, err := cohort.ParseDiagnosis(code)
	if err != nil {
		return code
	}
	return d.String()
}
