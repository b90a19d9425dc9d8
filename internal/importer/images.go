package importer

import (
	"context"
	"encoding/base64"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"go.uber.org/zap"

	"github.com/godoo/godoo-rpc/internal/odoo"
)

// =============================================================================
// IMAGE IMPORTER
// Matches image files to products by a regex with named group
// "default_code" and writes them to image_1920.
// =============================================================================

// ProductImage pairs a product default_code with an image file.
type ProductImage struct {
	Code string
	Path string
}

// ImageImporter uploads product images from the filesystem.
type ImageImporter struct {
	api *odoo.Client
	log *zap.Logger
}

// FindImages scans a folder recursively for files matching the pattern.
// The pattern must define a named group "default_code".
func (i *ImageImporter) FindImages(root string, pattern *regexp.Regexp) ([]ProductImage, error) {
	codeIdx := -1
	for idx, name := range pattern.SubexpNames() {
		if name == "default_code" {
			codeIdx = idx
		}
	}
	if codeIdx < 0 {
		return nil, fmt.Errorf("image pattern %q needs a named group default_code", pattern)
	}

	i.log.Info("searching product images",
		zap.String("root", root),
		zap.String("pattern", pattern.String()))

	var images []ProductImage
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		match := pattern.FindStringSubmatch(d.Name())
		if match == nil {
			return nil
		}
		images = append(images, ProductImage{Code: match[codeIdx], Path: path})
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}
	i.log.Debug("found images", zap.Int("images", len(images)))
	return images, nil
}

// Import writes the images to the matching products. Without overwrite,
// products that already carry an image are left alone.
func (i *ImageImporter) Import(ctx context.Context, images []ProductImage, overwrite bool) error {
	if len(images) == 0 {
		i.log.Debug("skipping product image import, no images provided")
		return nil
	}

	codes := make([]string, 0, len(images))
	byCode := map[string]string{}
	for _, img := range images {
		if _, seen := byCode[img.Code]; !seen {
			codes = append(codes, img.Code)
			byCode[img.Code] = img.Path
		}
	}

	products := i.api.Model("product.product")
	i.log.Info("querying Odoo with product codes", zap.Int("codes", len(codes)))
	prodIDs, err := products.Search(ctx, odoo.NewDomain(odoo.C("default_code", "in", codes)), nil)
	if err != nil {
		// An instance without the product module cannot take images.
		i.log.Warn("cannot import product images", zap.Error(err))
		return nil
	}

	if !overwrite {
		prodIDs, err = i.withoutExistingImages(ctx, prodIDs)
		if err != nil {
			return err
		}
	}
	if len(prodIDs) == 0 {
		return nil
	}

	i.log.Info("setting product images", zap.Int("products", len(prodIDs)))
	for idx, prodID := range prodIDs {
		record, err := products.ReadOne(ctx, prodID, []string{"default_code"})
		if err != nil {
			return err
		}
		code, _ := record["default_code"].(string)
		path, ok := byCode[code]
		if !ok {
			continue
		}

		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read image %s: %w", path, err)
		}
		i.log.Info("setting product image",
			zap.Int("product", idx+1),
			zap.Int("products", len(prodIDs)),
			zap.String("default_code", code),
			zap.String("file", path))
		encoded := base64.StdEncoding.EncodeToString(raw)
		if err := products.Write(ctx, []int64{prodID}, map[string]any{"image_1920": encoded}); err != nil {
			return fmt.Errorf("write image for %s: %w", code, err)
		}
	}
	return nil
}

// withoutExistingImages drops products that already have an image
// attachment on their template.
func (i *ImageImporter) withoutExistingImages(ctx context.Context, prodIDs []int64) ([]int64, error) {
	attachments, err := i.api.Model("ir.attachment").SearchRead(ctx, odoo.NewDomain(
		odoo.C("res_field", "=", "image_1920"),
		odoo.C("res_model", "=", "product.template"),
		odoo.C("res_id", "in", prodIDs),
	), []string{"res_id"}, nil)
	if err != nil {
		return nil, fmt.Errorf("query existing images: %w", err)
	}
	i.log.Debug("filtering products that already have an image",
		zap.Int("existing", len(attachments)))

	existing := map[int64]bool{}
	for _, att := range attachments {
		existing[odoo.RelationID(att["res_id"])] = true
	}
	var out []int64
	for _, id := range prodIDs {
		if !existing[id] {
			out = append(out, id)
		}
	}
	return out, nil
}
