package models

type Member struct {
	id                 int
	name               string
	registrationNumber string
	address            string
	phone              string
}

// MemberDTO is the wire shape stored in the membros collection.
type MemberDTO struct {
	IDPessoa        int    `json:"idPessoa"`
	Nome            string `json:"nome"`
	NumeroMatricula string `json:"numeroMatricula"`
	Endereco        string `json:"endereco"`
	Telefone        string `json:"telefone"`
}

var memberRules = struct {
	ID, Name, Registration, Address, Phone Rule
}{
	ID:           Keys("idPessoa"),
	Name:         Keys("nome"),
	Registration: Keys("numeroMatricula"),
	Address:      Keys("endereco"),
	Phone:        Keys("telefone"),
}

// NewMember validates every field. Use id 0 for a member the backend has not
// stored yet.
func NewMember(id int, name, registrationNumber, address, phone string) (*Member, error) {
	m := &Member{id: id}
	if err := m.SetName(name); err != nil {
		return nil, err
	}
	if err := m.SetRegistrationNumber(registrationNumber); err != nil {
		return nil, err
	}
	if err := m.SetAddress(address); err != nil {
		return nil, err
	}
	if err := m.SetPhone(phone); err != nil {
		return nil, err
	}
	return m, nil
}

// MemberFromDTO normalizes a record as returned by the backend.
func MemberFromDTO(raw map[string]any) (*Member, error) {
	return NewMember(
		memberRules.ID.Int(raw),
		memberRules.Name.String(raw),
		memberRules.Registration.String(raw),
		memberRules.Address.String(raw),
		memberRules.Phone.String(raw),
	)
}

func (m *Member) ID() int                    { return m.id }
func (m *Member) Name() string               { return m.name }
func (m *Member) RegistrationNumber() string { return m.registrationNumber }
func (m *Member) Address() string            { return m.address }
func (m *Member) Phone() string              { return m.phone }

func (m *Member) SetID(id int) { m.id = id }

var (
	memberName         = textRule("nome", "notblank,min=3,max=40", "Você deve colocar o nome completo", "Nome deve ter entre 3 e 40 caracteres")
	memberRegistration = textRule("numeroMatricula", "notblank", "Você deve colocar o número de matrícula", "")
	memberAddress      = textRule("endereco", "notblank", "Você deve colocar o endereço", "")
	memberPhone        = textRule("telefone", "notblank", "Você deve colocar o telefone", "")
)

func (m *Member) SetName(name string) error {
	if err := memberName.check(name); err != nil {
		return err
	}
	m.name = name
	return nil
}

func (m *Member) SetRegistrationNumber(number string) error {
	if err := memberRegistration.check(number); err != nil {
		return err
	}
	m.registrationNumber = number
	return nil
}

func (m *Member) SetAddress(address string) error {
	if err := memberAddress.check(address); err != nil {
		return err
	}
	m.address = address
	return nil
}

func (m *Member) SetPhone(phone string) error {
	if err := memberPhone.check(phone); err != nil {
		return err
	}
	m.phone = phone
	return nil
}

func (m *Member) DTO() MemberDTO {
	return MemberDTO{
		IDPessoa:        m.id,
		Nome:            m.name,
		NumeroMatricula: m.registrationNumber,
		Endereco:        m.address,
		Telefone:        m.phone,
	}
}
