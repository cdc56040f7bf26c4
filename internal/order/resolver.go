package order

import (
	"strconv"

	"github.com/brewdeck/brewdeck/internal/catalog"
)

// ResolveProductionCodes turns a product's template plus a customer selection
// into the document the machine executes. The algorithm is total for every
// combination of option flags; the only error is a malformed stored template,
// which the caller degrades to an empty document.
//
// Variant class codes take precedence over generic modifier codes: when a
// recipe variant already encodes the ice or shot dimension, no separate
// IceCode/ShotCode is emitted, otherwise the machine would apply the
// adjustment twice.
func ResolveProductionCodes(product *catalog.Product, sel Selection) (catalog.CodeDocument, error) {
	doc, err := catalog.ParseTemplate(product.ProductionTemplate)
	if err != nil {
		return nil, err
	}

	// Variant precedence, highest first: iced+double, iced, double. When no
	// variant matches, whatever ClassCode the template carries stays as-is.
	classCode := ""
	switch {
	case sel.Ice && sel.Shots == 2 && product.IcedAndDoubleClassCode != "":
		classCode = product.IcedAndDoubleClassCode
	case sel.Ice && product.IcedClassCode != "":
		classCode = product.IcedClassCode
	case sel.Shots == 2 && product.DoubleShotClassCode != "":
		classCode = product.DoubleShotClassCode
	}
	if classCode != "" {
		doc = doc.UpsertFront(catalog.KeyClassCode, classCode)
	}

	// Bean and milk codes: a template key is always overwritten with the
	// selection; a new entry is only added when the product offers the option.
	if _, ok := doc.Get(catalog.KeyBeanCode); ok || product.HasBeanOptions {
		doc = doc.Upsert(catalog.KeyBeanCode, strconv.Itoa(sel.BeanCode))
	}
	if _, ok := doc.Get(catalog.KeyMilkCode); ok || product.HasMilkOptions {
		doc = doc.Upsert(catalog.KeyMilkCode, strconv.Itoa(sel.MilkCode))
	}

	// Cup code is unconditional: cup size is a packaging decision, not a
	// customer-facing option, so every product gets one regardless of flags.
	cupCode := "2"
	if sel.Ice {
		cupCode = "3"
	}
	doc = doc.Upsert(catalog.KeyCupCode, cupCode)

	// Fallback modifier codes for products that offer the option but have no
	// variant class code covering it.
	usingVariantForIce := sel.Ice && (product.IcedClassCode != "" ||
		(sel.Shots == 2 && product.IcedAndDoubleClassCode != ""))
	usingVariantForShots := sel.Shots == 2 && (product.DoubleShotClassCode != "" ||
		(sel.Ice && product.IcedAndDoubleClassCode != ""))

	if !usingVariantForIce && product.HasIceOptions {
		iceCode := "0"
		if sel.Ice {
			iceCode = "1"
		}
		doc = doc.Upsert(catalog.KeyIceCode, iceCode)
	}
	if !usingVariantForShots && product.HasShotOptions {
		doc = doc.Upsert(catalog.KeyShotCode, strconv.Itoa(sel.Shots))
	}

	return doc, nil
}
