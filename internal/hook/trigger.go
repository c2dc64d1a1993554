package hook

// Trigger names a lifecycle phase a hook can attach to.
type Trigger string

const (
	// BeforeSave fires before any write, create or update.
	BeforeSave Trigger = "before_save"
	// AfterSave fires after any successful write.
	AfterSave Trigger = "after_save"
	// BeforeCreate fires before the first write of a new instance.
	BeforeCreate Trigger = "before_create"
	// AfterCreate fires after the first write of a new instance.
	AfterCreate Trigger = "after_create"
	// BeforeUpdate fires before a write of an existing instance.
	BeforeUpdate Trigger = "before_update"
	// AfterUpdate fires after a write of an existing instance.
	AfterUpdate Trigger = "after_update"
	// BeforeDelete fires before deletion.
	BeforeDelete Trigger = "before_delete"
	// AfterDelete fires after deletion.
	AfterDelete Trigger = "after_delete"
)

// Triggers lists every trigger in a fixed order. Diagnostic listings iterate
// this slice so output is stable across runs.
var Triggers = []Trigger{
	BeforeSave,
	AfterSave,
	BeforeCreate,
	AfterCreate,
	BeforeUpdate,
	AfterUpdate,
	BeforeDelete,
	AfterDelete,
}

// Valid reports whether t is a known trigger.
func (t Trigger) Valid() bool {
	switch t {
	case BeforeSave, AfterSave, BeforeCreate, AfterCreate,
		BeforeUpdate, AfterUpdate, BeforeDelete, AfterDelete:
		return true
	}
	return false
}
