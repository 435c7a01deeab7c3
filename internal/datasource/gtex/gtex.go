// Package gtex wraps the GTEx Portal API for single-tissue eQTL
// associations.
package gtex

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/genescout/genescout/internal/restclient"
)

const BaseURL = "https://gtexportal.org/api/v2"

// RateLimit is the conservative ceiling for GTEx requests.
const RateLimit = 10

const datasetID = "gtex_v8"

// Tissues lists the GTEx v8 tissue site details queried for eQTLs.
var Tissues = []string{
	"Adipose_Subcutaneous", "Adipose_Visceral_Omentum",
	"Adrenal_Gland", "Artery_Aorta", "Artery_Coronary", "Artery_Tibial",
	"Bladder", "Brain_Amygdala", "Brain_Anterior_cingulate_cortex_BA24",
	"Brain_Caudate_basal_ganglia", "Brain_Cerebellar_Hemisphere", "Brain_Cerebellum",
	"Brain_Cortex", "Brain_Frontal_Cortex_BA9", "Brain_Hippocampus",
	"Brain_Hypothalamus", "Brain_Nucleus_accumbens_basal_ganglia",
	"Brain_Putamen_basal_ganglia", "Brain_Spinal_cord_cervical_c-1",
	"Brain_Substantia_nigra", "Breast_Mammary_Tissue",
	"Cells_Cultured_fibroblasts", "Cells_EBV-transformed_lymphocytes",
	"Colon_Sigmoid", "Colon_Transverse", "Esophagus_Gastroesophageal_Junction",
	"Esophagus_Mucosa", "Esophagus_Muscularis", "Fallopian_Tube",
	"Heart_Atrial_Appendage", "Heart_Left_Ventricle", "Kidney_Cortex",
	"Kidney_Medulla", "Liver", "Lung", "Minor_Salivary_Gland", "Muscle_Skeletal",
	"Nerve_Tibial", "Ovary", "Pancreas", "Pituitary", "Prostate",
	"Skin_Not_Sun_Exposed_Suprapubic", "Skin_Sun_Exposed_Lower_leg",
	"Small_Intestine_Terminal_Ileum", "Spleen", "Stomach", "Testis",
	"Thyroid", "Uterus", "Vagina", "Whole_Blood",
}

type Client struct {
	rc *restclient.Client
}

func New(rc *restclient.Client) *Client {
	return &Client{rc: rc}
}

// Association is one single-tissue eQTL hit.
type Association struct {
	VariantID string   `json:"variantId"`
	SnpID     string   `json:"snpId"`
	GeneID    string   `json:"geneId"`
	PValue    *float64 `json:"pValue"`
	NES       *float64 `json:"nes"`
	Tissue    string   `json:"-"`
}

// EQTLs fetches single-tissue eQTL associations for a gene in one tissue.
func (c *Client) EQTLs(ctx context.Context, gencodeID, tissue string) ([]Association, error) {
	params := url.Values{
		"gencodeId":          {versionedGencodeID(gencodeID)},
		"tissueSiteDetailId": {tissue},
		"datasetId":          {datasetID},
		"pageSize":           {strconv.Itoa(250)},
	}
	data, err := c.rc.Get(ctx, "/association/singleTissueEqtl", params)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Data []Association `json:"data"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parse GTEx response for %s: %w", tissue, err)
	}
	for i := range resp.Data {
		resp.Data[i].Tissue = tissue
	}
	return resp.Data, nil
}

// versionedGencodeID appends the gencode v26 version suffix GTEx v8
// expects when the caller passes an unversioned Ensembl ID.
func versionedGencodeID(id string) string {
	if strings.Contains(id, ".") {
		return id
	}
	return id + ".4"
}
