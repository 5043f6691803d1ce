package validation

// Form names.
const (
	FormLogin                = "login"
	FormClientRegistration   = "client_registration"
	FormProviderRegistration = "provider_registration"
	FormProfileEdit          = "profile_edit"
	FormServiceOffer         = "service_offer"
	FormServiceRequest       = "service_request"
)

// Field names as sent by the web client.
const (
	FieldEmail           = "email"
	FieldPassword        = "senha"
	FieldConfirmPassword = "confirmarSenha"
	FieldFullName        = "nomeCompleto"
	FieldPhone           = "telefone"
	FieldAddress         = "endereco"
	FieldQualification   = "qualificacaoTecnica"
	FieldDocument        = "documento"

	FieldName         = "nome"
	FieldDescription  = "descricao"
	FieldCity         = "cidade"
	FieldState        = "estado"
	FieldAvailability = "disponibilidade"
	FieldPrice        = "preco"

	FieldDesiredTime    = "horario"
	FieldProposedAmount = "valorProposto"
)

var (
	LoginSchema = Schema{
		Name: FormLogin,
		Fields: []Field{
			{Name: FieldEmail, Rules: []Rule{
				Required("Email é obrigatório"),
				Email("Email inválido"),
			}},
			{Name: FieldPassword, Rules: []Rule{
				Required("Senha é obrigatória"),
			}},
		},
	}

	ClientRegistrationSchema = Schema{
		Name:   FormClientRegistration,
		Fields: accountFields(),
		Cross:  []CrossRule{passwordConfirmation()},
	}

	ProviderRegistrationSchema = Schema{
		Name: FormProviderRegistration,
		Fields: append(accountFields(),
			Field{Name: FieldAddress, Rules: []Rule{
				Required("Endereço é obrigatório"),
				Min(10, "Endereço deve ter pelo menos 10 caracteres"),
				Max(500, "Endereço deve ter no máximo 500 caracteres"),
			}},
			Field{Name: FieldQualification, Rules: []Rule{
				Required("Qualificação técnica é obrigatória"),
				Min(20, "Descreva sua qualificação técnica (mínimo 20 caracteres)"),
				Max(1000, "Qualificação técnica deve ter no máximo 1000 caracteres"),
			}},
			Field{Name: FieldDocument, Rules: []Rule{
				Required("Por favor, envie um documento de identidade."),
			}},
		),
		Cross: []CrossRule{passwordConfirmation()},
	}

	ProfileEditSchema = Schema{
		Name: FormProfileEdit,
		Fields: []Field{
			{Name: FieldName, Rules: []Rule{
				Required("Nome é obrigatório"),
				Min(3, "Nome deve ter no mínimo 3 caracteres"),
				Max(100, "Nome deve ter no máximo 100 caracteres"),
			}},
			{Name: FieldEmail, Rules: []Rule{
				Required("Email é obrigatório"),
				Email("Email inválido"),
				Max(255, "Email deve ter no máximo 255 caracteres"),
			}},
			{Name: FieldPhone, Rules: []Rule{
				Required("Telefone é obrigatório"),
				Min(10, "Telefone inválido"),
				Max(20, "Telefone inválido"),
			}},
			{Name: FieldDescription, Rules: []Rule{
				Required("Descrição é obrigatória"),
				Min(20, "Descrição deve ter no mínimo 20 caracteres"),
				Max(1000, "Descrição deve ter no máximo 1000 caracteres"),
			}},
			{Name: FieldCity, Rules: []Rule{
				Required("Cidade é obrigatória"),
				Min(2, "Cidade é obrigatória"),
				Max(100, "Cidade deve ter no máximo 100 caracteres"),
			}},
			{Name: FieldState, Rules: []Rule{
				Len(2, "Use a sigla do estado (ex: SP)"),
			}},
			{Name: FieldAvailability, Rules: []Rule{
				Required("Informe sua disponibilidade"),
				Min(10, "Informe sua disponibilidade"),
				Max(200, "Disponibilidade deve ter no máximo 200 caracteres"),
			}},
		},
	}

	ServiceOfferSchema = Schema{
		Name: FormServiceOffer,
		Fields: []Field{
			{Name: FieldName, Rules: []Rule{
				Required("Nome do serviço é obrigatório"),
				Min(3, "Nome do serviço deve ter no mínimo 3 caracteres"),
				Max(100, "Nome do serviço deve ter no máximo 100 caracteres"),
			}},
			{Name: FieldDescription, Rules: []Rule{
				Required("Descrição é obrigatória"),
				Min(10, "Descrição deve ter no mínimo 10 caracteres"),
				Max(500, "Descrição deve ter no máximo 500 caracteres"),
			}},
			{Name: FieldPrice, Rules: []Rule{
				Required("Preço é obrigatório"),
			}},
		},
	}

	ServiceRequestSchema = Schema{
		Name: FormServiceRequest,
		Fields: []Field{
			{Name: FieldDescription, Rules: []Rule{
				Required("Descreva o serviço que você precisa"),
				Max(2000, "Descrição deve ter no máximo 2000 caracteres"),
			}},
			{Name: FieldDesiredTime, Rules: []Rule{
				Required("Informe o horário desejado"),
				Tag("datetime="+DateTimeLayout, "Horário inválido"),
			}},
			{Name: FieldProposedAmount, Rules: []Rule{
				Required("Informe o valor proposto"),
				Tag(TagPositiveAmount, "Valor proposto deve ser maior que zero"),
			}},
		},
	}
)

// accountFields are shared by the client and provider registration forms.
func accountFields() []Field {
	return []Field{
		{Name: FieldFullName, Rules: []Rule{
			Required("Nome é obrigatório"),
			Min(3, "Nome deve ter pelo menos 3 caracteres"),
			Max(100, "Nome deve ter no máximo 100 caracteres"),
			Tag(TagLetters, "Nome deve conter apenas letras"),
		}},
		{Name: FieldEmail, Rules: []Rule{
			Required("Email é obrigatório"),
			Email("Email inválido"),
			Max(255, "Email deve ter no máximo 255 caracteres"),
		}},
		{Name: FieldPassword, Rules: []Rule{
			Required("Senha é obrigatória"),
			Min(8, "Senha deve ter pelo menos 8 caracteres"),
			Tag(TagPasswordComplexity, "Senha deve conter ao menos: 1 minúscula, 1 maiúscula, 1 número"),
		}},
		{Name: FieldPhone, Rules: []Rule{
			Required("Telefone é obrigatório"),
			Min(10, "Telefone inválido"),
			Max(15, "Telefone inválido"),
			Tag(TagPhone, "Telefone deve ter formato válido"),
		}},
	}
}

func passwordConfirmation() CrossRule {
	return EqualTo(FieldConfirmPassword, FieldPassword, "Senhas não coincidem")
}

var schemas = map[string]Schema{
	FormLogin:                LoginSchema,
	FormClientRegistration:   ClientRegistrationSchema,
	FormProviderRegistration: ProviderRegistrationSchema,
	FormProfileEdit:          ProfileEditSchema,
	FormServiceOffer:         ServiceOfferSchema,
	FormServiceRequest:       ServiceRequestSchema,
}

// Lookup returns the schema registered under name.
func Lookup(name string) (Schema, bool) {
	s, ok := schemas[name]
	return s, ok
}
