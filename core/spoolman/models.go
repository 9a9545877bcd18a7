package spoolman

import "sort"

// Vendor represents a filament vendor as returned by Spoolman.
type Vendor struct {
	// ID is the unique vendor identifier.
	ID int `json:"id"`

	// Name is the vendor display name.
	Name string `json:"name"`

	// Comment is a free-form note.
	Comment string `json:"comment,omitempty"`

	// Extra contains arbitrary user-defined key/value pairs.
	Extra map[string]string `json:"extra,omitempty"`

	// Registered is the registration timestamp.
	Registered string `json:"registered,omitempty"`
}

// Filament represents one filament record as returned by Spoolman.
// It is an immutable snapshot: a refetch replaces the record wholesale.
type Filament struct {
	// ID is the unique filament identifier.
	ID int `json:"id"`

	// Name is the filament display name.
	Name string `json:"name,omitempty"`

	// Material is the filament material, e.g. "PLA".
	Material string `json:"material,omitempty"`

	// Vendor is the embedded vendor record, if the API included it.
	Vendor *Vendor `json:"vendor,omitempty"`

	// VendorID references the vendor when Vendor is not embedded.
	VendorID int `json:"vendor_id,omitempty"`

	// Density is the material density in g/cm3.
	Density float64 `json:"density,omitempty"`

	// Diameter is the filament diameter in mm.
	Diameter float64 `json:"diameter,omitempty"`

	// Weight is the net filament weight in grams.
	Weight float64 `json:"weight,omitempty"`

	// SpoolWeight is the weight of an empty spool in grams.
	SpoolWeight float64 `json:"spool_weight,omitempty"`

	// Price is the purchase price.
	Price float64 `json:"price,omitempty"`

	// SettingsExtruderTemp is the recommended extruder temperature.
	SettingsExtruderTemp int `json:"settings_extruder_temp,omitempty"`

	// SettingsBedTemp is the recommended bed temperature.
	SettingsBedTemp int `json:"settings_bed_temp,omitempty"`

	// ColorHex is the filament color as a hex string without '#'.
	ColorHex string `json:"color_hex,omitempty"`

	// ArticleNumber is the vendor article number.
	ArticleNumber string `json:"article_number,omitempty"`

	// Comment is a free-form note.
	Comment string `json:"comment,omitempty"`

	// Extra contains arbitrary user-defined key/value pairs. Values are
	// JSON-encoded strings as stored by Spoolman.
	Extra map[string]string `json:"extra,omitempty"`

	// Registered is the registration timestamp.
	Registered string `json:"registered,omitempty"`
}

// Spool represents one physical spool as returned by Spoolman.
type Spool struct {
	// ID is the unique spool identifier.
	ID int `json:"id"`

	// Filament is the embedded filament record, if the API included it.
	Filament *Filament `json:"filament,omitempty"`

	// FilamentID references the filament when Filament is not embedded.
	FilamentID int `json:"filament_id,omitempty"`

	// RemainingWeight is the estimated remaining filament in grams.
	RemainingWeight float64 `json:"remaining_weight,omitempty"`

	// UsedWeight is the consumed filament in grams.
	UsedWeight float64 `json:"used_weight,omitempty"`

	// Archived marks a spool as no longer in use.
	Archived bool `json:"archived,omitempty"`

	// FirstUsed is the first usage timestamp.
	FirstUsed string `json:"first_used,omitempty"`

	// LastUsed is the last usage timestamp.
	LastUsed string `json:"last_used,omitempty"`

	// Registered is the registration timestamp.
	Registered string `json:"registered,omitempty"`

	// Price is the purchase price.
	Price float64 `json:"price,omitempty"`

	// Location is where the spool is stored.
	Location string `json:"location,omitempty"`

	// LotNr is the production lot number.
	LotNr string `json:"lot_nr,omitempty"`

	// Comment is a free-form note.
	Comment string `json:"comment,omitempty"`

	// Extra contains arbitrary user-defined key/value pairs.
	Extra map[string]string `json:"extra,omitempty"`
}

// Snapshot is a consistent view of the inventory at fetch time.
// Vendors are joined into filaments and filaments into spools, so
// consumers never have to chase vendor_id / filament_id references.
type Snapshot struct {
	// Vendors is indexed by vendor ID.
	Vendors map[int]*Vendor

	// Filaments is indexed by filament ID. It includes filaments that were
	// only seen embedded inside spools.
	Filaments map[int]*Filament

	// Spools is ordered by spool ID for deterministic processing.
	Spools []*Spool
}

// ActiveSpools returns the non-archived spools that reference a known
// filament, in spool-ID order.
func (s *Snapshot) ActiveSpools() []*Spool {
	active := make([]*Spool, 0, len(s.Spools))
	for _, spool := range s.Spools {
		if spool.Archived || spool.Filament == nil {
			continue
		}
		active = append(active, spool)
	}
	return active
}

// ActiveFilaments returns the filaments that have at least one active
// spool, in filament-ID order. Filaments without an active spool get no
// configuration file.
func (s *Snapshot) ActiveFilaments() []*Filament {
	seen := make(map[int]*Filament)
	for _, spool := range s.ActiveSpools() {
		seen[spool.Filament.ID] = spool.Filament
	}
	out := make([]*Filament, 0, len(seen))
	for _, f := range seen {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// SpoolsForFilament returns the active spools belonging to one filament,
// in spool-ID order.
func (s *Snapshot) SpoolsForFilament(filamentID int) []*Spool {
	var out []*Spool
	for _, spool := range s.ActiveSpools() {
		if spool.Filament.ID == filamentID {
			out = append(out, spool)
		}
	}
	return out
}

// ChangeNotification is a normalized inventory change event received over
// the push channel.
type ChangeNotification struct {
	// Resource names the changed record kind: vendor, filament or spool.
	Resource string `json:"resource"`

	// Type is the change type: added, updated or deleted.
	Type string `json:"type"`

	// ID is the affected record identifier, zero when unknown.
	ID int `json:"id,omitempty"`
}
