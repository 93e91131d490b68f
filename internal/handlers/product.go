package handlers

import (
	"io"
	"mime/multipart"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/tijara/internal/middleware"
	"github.com/example/tijara/internal/models"
	"github.com/example/tijara/internal/services"
	"github.com/example/tijara/internal/utils"
)

const maxProductImages = 6

// ProductHandler manages the product catalog.
type ProductHandler struct {
	db      *gorm.DB
	storage services.Storage
}

// NewProductHandler constructs ProductHandler.
func NewProductHandler(db *gorm.DB, storage services.Storage) *ProductHandler {
	return &ProductHandler{db: db, storage: storage}
}

// ListProducts returns paginated products with optional filters. Prices are
// converted into the requested display currency.
func (h *ProductHandler) ListProducts(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Product{})

	if v := c.Query("category_id"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			query = query.Where("category_id = ?", id)
		}
	}

	if search := strings.TrimSpace(c.Query("search")); search != "" {
		q := "%" + search + "%"
		query = query.Where("name ILIKE ? OR description ILIKE ?", q, q)
	}

	if minPrice := c.Query("min_price"); minPrice != "" {
		if val, err := strconv.ParseFloat(minPrice, 64); err == nil {
			query = query.Where("price >= ?", val)
		}
	}

	if maxPrice := c.Query("max_price"); maxPrice != "" {
		if val, err := strconv.ParseFloat(maxPrice, 64); err == nil {
			query = query.Where("price <= ?", val)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var products []models.Product
	if err := query.Preload("Category").Preload("Images").Preload("Offer").
		Limit(pg.Limit).Offset(pg.Offset).
		Order("created_at desc").
		Find(&products).Error; err != nil {
		return err
	}

	currency := h.displayCurrency(c)
	now := time.Now()
	data := make([]fiber.Map, 0, len(products))
	for i := range products {
		data = append(data, productResponse(&products[i], currency, now, h.storage))
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"data":     data,
		"currency": currency,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// GetProduct loads a product with relations.
func (h *ProductHandler) GetProduct(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var product models.Product
	if err := h.db.Preload("Category").Preload("Images").Preload("Offer").
		First(&product, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		return err
	}

	currency := h.displayCurrency(c)
	return c.JSON(fiber.Map{
		"success": true,
		"data":    productResponse(&product, currency, time.Now(), h.storage),
	})
}

// displayCurrency resolves the currency prices are shown in: an explicit query
// parameter wins, then the authenticated user's stored preference, then the
// configured default.
func (h *ProductHandler) displayCurrency(c *fiber.Ctx) string {
	if code := c.Query("currency"); code != "" {
		return utils.NormalizeCurrency(code)
	}
	if userID, ok := middleware.GetCurrentUserID(c); ok {
		var user models.User
		if err := h.db.First(&user, "id = ?", userID).Error; err == nil && user.PreferredCurrency != "" {
			return utils.NormalizeCurrency(user.PreferredCurrency)
		}
	}
	return utils.NormalizeCurrency("")
}

// CreateProduct creates a product from a multipart form. At least one image
// must survive the upload or the whole create is rolled back.
func (h *ProductHandler) CreateProduct(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "multipart form required")
	}

	product := models.Product{
		Name:        formValue(form, "name"),
		Description: formValue(form, "description"),
	}
	if product.Name == "" {
		return &services.ValidationError{Field: "name", Reason: "name is required"}
	}

	price, err := strconv.ParseFloat(formValue(form, "price"), 64)
	if err != nil || price < 0 {
		return &services.ValidationError{Field: "price", Reason: "valid price is required"}
	}
	product.Price = price

	if stock, err := strconv.Atoi(formValue(form, "stock")); err == nil && stock >= 0 {
		product.Stock = stock
	}

	if v := formValue(form, "category_id"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			product.CategoryID = &id
		}
	}

	files := form.File["images"]
	if len(files) == 0 || len(files) > maxProductImages {
		return &services.ValidationError{Field: "images", Reason: "between 1 and 6 images are required"}
	}

	if err := h.db.Create(&product).Error; err != nil {
		return err
	}

	saved := h.saveImages(&product, files, 0)
	if saved == 0 {
		// No valid image made it through; undo the create.
		h.db.Where("product_id = ?", product.ID).Delete(&models.ProductImage{})
		h.db.Delete(&product)
		return &services.ValidationError{Field: "images", Reason: "no image could be saved"}
	}

	if err := h.db.Preload("Images").First(&product, "id = ?", product.ID).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": product})
}

// UpdateProduct updates product fields and optionally appends images. The
// product must keep at least one image.
func (h *ProductHandler) UpdateProduct(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var product models.Product
	if err := h.db.Preload("Images").First(&product, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		return err
	}

	form, err := c.MultipartForm()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "multipart form required")
	}

	updates := map[string]interface{}{}
	if v := formValue(form, "name"); v != "" {
		updates["name"] = v
	}
	if v := formValue(form, "description"); v != "" {
		updates["description"] = v
	}
	if v := formValue(form, "price"); v != "" {
		if price, err := strconv.ParseFloat(v, 64); err == nil && price >= 0 {
			updates["price"] = price
		}
	}
	if v := formValue(form, "stock"); v != "" {
		if stock, err := strconv.Atoi(v); err == nil && stock >= 0 {
			updates["stock"] = stock
		}
	}
	if v := formValue(form, "category_id"); v != "" {
		if catID, err := uuid.Parse(v); err == nil {
			updates["category_id"] = catID
		}
	}

	if len(updates) > 0 {
		if err := h.db.Model(&product).Updates(updates).Error; err != nil {
			return err
		}
	}

	// Remove requested images, but never the last one.
	for _, raw := range form.Value["remove_image_ids"] {
		imgID, err := uuid.Parse(raw)
		if err != nil {
			continue
		}
		var remaining int64
		h.db.Model(&models.ProductImage{}).Where("product_id = ?", product.ID).Count(&remaining)
		if remaining <= 1 {
			return &services.ValidationError{Field: "images", Reason: "product must keep at least one image"}
		}
		h.db.Where("id = ? AND product_id = ?", imgID, product.ID).Delete(&models.ProductImage{})
	}

	files := form.File["images"]
	var existing int64
	h.db.Model(&models.ProductImage{}).Where("product_id = ?", product.ID).Count(&existing)
	if int(existing)+len(files) > maxProductImages {
		return &services.ValidationError{Field: "images", Reason: "a product has at most 6 images"}
	}
	h.saveImages(&product, files, int(existing))

	if err := h.db.Preload("Images").Preload("Offer").First(&product, "id = ?", product.ID).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": product})
}

// DeleteProduct removes a product with its images and offer.
func (h *ProductHandler) DeleteProduct(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	return h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&models.ProductImage{}).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", id).Delete(&models.Offer{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Product{}, "id = ?", id).Error; err != nil {
			return err
		}
		return c.JSON(fiber.Map{"success": true, "message": "product deleted"})
	})
}

// saveImages uploads files and records the surviving ones, returning how many
// were saved. Upload failures skip the file.
func (h *ProductHandler) saveImages(product *models.Product, files []*multipart.FileHeader, orderOffset int) int {
	saved := 0
	for i, file := range files {
		data, err := readMultipartFile(file)
		if err != nil {
			continue
		}
		path, err := h.storage.Put("products", file.Filename, data)
		if err != nil {
			continue
		}
		image := models.ProductImage{
			ProductID:    product.ID,
			Path:         path,
			DisplayOrder: orderOffset + i,
		}
		if err := h.db.Create(&image).Error; err != nil {
			continue
		}
		saved++
	}
	return saved
}

func productResponse(p *models.Product, currency string, now time.Time, storage services.Storage) fiber.Map {
	images := make([]fiber.Map, 0, len(p.Images))
	for _, img := range p.Images {
		images = append(images, fiber.Map{
			"id":  img.ID,
			"url": storage.URL(img.Path),
		})
	}

	resp := fiber.Map{
		"id":            p.ID,
		"name":          p.Name,
		"description":   p.Description,
		"stock":         p.Stock,
		"category":      p.Category,
		"images":        images,
		"price":         utils.ConvertPrice(p.EffectivePrice(now), currency),
		"price_display": utils.FormatPrice(utils.ConvertPrice(p.EffectivePrice(now), currency), currency),
	}
	if p.Offer != nil && p.Offer.ActiveAt(now) {
		resp["offer"] = fiber.Map{
			"discount_percent": p.Offer.DiscountPercent,
			"original_price":   utils.ConvertPrice(p.Price, currency),
		}
	}
	return resp
}

func formValue(form *multipart.Form, key string) string {
	if values := form.Value[key]; len(values) > 0 {
		return strings.TrimSpace(values[0])
	}
	return ""
}

func readMultipartFile(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
