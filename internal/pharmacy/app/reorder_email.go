package app

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/dejobratic/pharmacie/internal/pharmacy/domain"
)

// reorderGroup holds the medications of one category that need reordering.
type reorderGroup struct {
	Category    domain.Category
	Medications []domain.Medication
}

type reorderEmailRow struct {
	Name      string
	Stock     int
	Threshold int
	UnitPrice string
	Striped   bool
}

type reorderEmailSection struct {
	Label string
	Rows  []reorderEmailRow
}

type reorderEmailData struct {
	SupplierName string
	PharmacyName string
	Sections     []reorderEmailSection
}

var reorderEmailTemplate = template.Must(template.New("reorder").Parse(`<html>
<body style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
  <h2 style="color: #2c3e50;">Demande de devis de réapprovisionnement</h2>
  <p>Bonjour <strong>{{.SupplierName}}</strong>,</p>
  <p>Nous vous contactons afin de solliciter un devis de réapprovisionnement
     pour les médicaments suivants, dont le stock est actuellement insuffisant.
     Merci de nous transmettre vos disponibilités et tarifs.</p>
{{- range .Sections}}
  <h3 style="color:#2980b9; border-bottom:1px solid #ccc; padding-bottom:4px;">{{.Label}}</h3>
  <table style="border-collapse: collapse; width: 100%; margin-bottom: 16px;">
    <thead>
      <tr style="background-color:#2980b9; color:#fff;">
        <th style="padding:8px; text-align:left;">Médicament</th>
        <th style="padding:8px; text-align:right;">Stock actuel</th>
        <th style="padding:8px; text-align:right;">Niveau réappro</th>
        <th style="padding:8px; text-align:right;">Prix unitaire</th>
      </tr>
    </thead>
    <tbody>
    {{- range .Rows}}
      <tr{{if .Striped}} style="background-color:#f2f2f2;"{{end}}>
        <td style="padding:7px; border:1px solid #ddd;">{{.Name}}</td>
        <td style="padding:7px; border:1px solid #ddd; text-align:right; color:#c0392b;">{{.Stock}}</td>
        <td style="padding:7px; border:1px solid #ddd; text-align:right;">{{.Threshold}}</td>
        <td style="padding:7px; border:1px solid #ddd; text-align:right;">{{.UnitPrice}} €</td>
      </tr>
    {{- end}}
    </tbody>
  </table>
{{- end}}
  <p>Nous vous remercions de bien vouloir nous adresser votre devis dans les meilleurs délais.</p>
  <p>Cordialement,<br><strong>{{.PharmacyName}}</strong></p>
</body>
</html>
`))

func renderReorderEmail(supplier domain.Supplier, pharmacyName string, groups []reorderGroup) (string, error) {
	data := reorderEmailData{
		SupplierName: supplier.Name,
		PharmacyName: pharmacyName,
		Sections:     make([]reorderEmailSection, 0, len(groups)),
	}
	for _, g := range groups {
		section := reorderEmailSection{Label: g.Category.Label}
		for i, m := range g.Medications {
			section.Rows = append(section.Rows, reorderEmailRow{
				Name:      m.Name,
				Stock:     m.UnitsInStock,
				Threshold: m.ReorderThreshold,
				UnitPrice: m.UnitPrice.StringFixed(2),
				Striped:   i%2 == 1,
			})
		}
		data.Sections = append(data.Sections, section)
	}

	var buf bytes.Buffer
	if err := reorderEmailTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render reorder email: %w", err)
	}
	return buf.String(), nil
}
