package sync

import (
	"fmt"
	"strings"

	"github.com/andomingos87/seleto-industrial-sub000/internal/core/domain"
	"github.com/andomingos87/seleto-industrial-sub000/internal/infra/crm"
)

// dealTitle builds the deal title from product and location, with generic
// fallbacks for sparse leads ("Lead - Interesse - Brasil").
func dealTitle(lead domain.LeadSnapshot) string {
	product := lead.Product
	if product == "" {
		product = placeholderProduct
	}

	location := placeholderLocation
	if city := crm.NormalizeCityName(lead.City); city != "" {
		location = city
		if uf := crm.NormalizeUF(lead.UF); uf != "" {
			location += "/" + uf
		}
	}

	return fmt.Sprintf("Lead - %s - %s", product, location)
}

// noteContent renders the qualification summary attached to a new deal.
func noteContent(lead domain.LeadSnapshot) string {
	var b strings.Builder
	b.WriteString("Lead qualificado via WhatsApp\n\n")

	writeField(&b, "Nome", lead.Name)
	writeField(&b, "Empresa", lead.CompanyName)
	writeField(&b, "CNPJ", lead.TaxID)
	if lead.City != "" {
		location := crm.NormalizeCityName(lead.City)
		if uf := crm.NormalizeUF(lead.UF); uf != "" {
			location += "/" + uf
		}
		writeField(&b, "Cidade", location)
	}
	writeField(&b, "Produto de interesse", lead.Product)
	writeField(&b, "Volume", lead.Volume)
	writeField(&b, "Urgência", lead.Urgency)
	if lead.KnowsSeller {
		writeField(&b, "Já conhece a empresa", "sim")
	} else {
		writeField(&b, "Já conhece a empresa", "não")
	}
	writeField(&b, "Telefone", lead.Phone)
	writeField(&b, "Email", lead.Email)
	writeField(&b, "Classificação", string(lead.Temperature))
	writeField(&b, "Próximo passo", nextStep(lead.Temperature))

	return strings.TrimRight(b.String(), "\n")
}

// nextStep maps the temperature classification to the recommended follow-up.
func nextStep(t domain.Temperature) string {
	switch t {
	case domain.TemperatureHot:
		return "Encaminhar imediatamente para um consultor comercial"
	case domain.TemperatureWarm:
		return "Agendar follow-up com o lead"
	default:
		return "Nutrir com catálogo e conteúdo"
	}
}

func writeField(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "%s: %s\n", label, value)
}
