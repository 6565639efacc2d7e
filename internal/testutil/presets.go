package testutil

// Standard class names written by WithStandardMappings.
const (
	Invoice  = `App\Invoice`
	Customer = `App\Customer`
	Payment  = `App\Billing\Payment`
)

// WithStandardMappings adds a small billing model.
func (b *Builder) WithStandardMappings() *Builder {
	return b.
		WithClass(Invoice,
			Field("number", "string"), Field("total", "decimal"),
			NullableField("paid_at", "datetime")).
		WithClass(Customer,
			Field("name", "string"), NullableField("email", "string"),
			Option("read_only", "false")).
		WithClass(Payment,
			Table("billing_payments"), Field("amount", "decimal"))
}
