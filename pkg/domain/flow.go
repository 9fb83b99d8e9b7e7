package domain

// Flow identifies a top-level conversation script.
type Flow string

const (
	// FlowDirectSales sells a single package directly.
	FlowDirectSales Flow = "direct_sales"
	// FlowPackageOrder orders packaging without product consultation.
	FlowPackageOrder Flow = "package_order"
	// FlowBrandLaunch is the full brand-launch service (richest chain).
	FlowBrandLaunch Flow = "brand_launch"
	// FlowConsultation is a guided packaging consultation.
	FlowConsultation Flow = "consultation"
)

// Step is a named position within a flow's state machine.
type Step string

const (
	StepStart            Step = "start"
	StepProductDetails   Step = "product_details"
	StepSelectPackage    Step = "select_package"
	StepSelectVariant    Step = "select_package_variant"
	StepPackageSpecs     Step = "select_package_specs"
	StepFulfillmentSpecs Step = "fulfillment_specs"
	StepLaunchKit        Step = "launch_kit"
	StepDraftOrder       Step = "draft_order"
)

// RequiresPackage reports whether a step only makes sense once a catalog
// package has been selected. The engine repairs memory that violates this.
func (s Step) RequiresPackage() bool {
	switch s {
	case StepSelectVariant, StepPackageSpecs, StepFulfillmentSpecs, StepLaunchKit, StepDraftOrder:
		return true
	}
	return false
}

// IsConsultation reports whether the step is driven by a consultation phase.
func (s Step) IsConsultation() bool {
	switch s {
	case StepProductDetails, StepPackageSpecs, StepFulfillmentSpecs, StepLaunchKit:
		return true
	}
	return false
}
